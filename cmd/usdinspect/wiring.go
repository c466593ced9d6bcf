package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/config/file"
	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/sqlitestage"
	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/yamlstage"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/cli"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/core/services"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// bundleExtensions are the file extensions opened as SQLite stage bundles.
var bundleExtensions = map[string]bool{".usdb": true, ".db": true, ".sqlite": true}

// wiring builds the services the command line needs once flags are parsed.
type wiring struct {
	registry *prometheus.Registry
	settings driving.SettingsService
	app      domain.AppSettings
}

func newWiring() *wiring {
	return &wiring{
		registry: prometheus.NewRegistry(),
		app:      domain.DefaultAppSettings(),
	}
}

// bootstrap opens the config store and applies the persisted settings.
func (w *wiring) bootstrap(opts cli.GlobalOptions) error {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	svc := services.NewSettingsService(store)
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	w.settings = svc
	w.app = *settings
	cli.SetSettingsService(svc)
	if settings.Log.Verbose && !opts.Verbose {
		logger.SetVerbose(true)
	}
	logger.Debug("config at %s", store.Path())
	return nil
}

// loaderFor picks the document loader for a location by file extension.
func loaderFor(location string, opts cli.OpenOptions) driven.DocumentLoader {
	if bundleExtensions[strings.ToLower(filepath.Ext(location))] {
		return sqlitestage.NewLoader()
	}
	var yamlOpts []yamlstage.Option
	if opts.SessionLayer != "" {
		yamlOpts = append(yamlOpts, yamlstage.WithSessionLayer(opts.SessionLayer))
	}
	return yamlstage.NewLoader(yamlOpts...)
}

// openStage opens a session with a cache whose counters are exported on the
// registry.
func (w *wiring) openStage(ctx context.Context, location string, opts cli.OpenOptions) (driving.StageService, error) {
	cacheOpts := []services.CacheOption{services.WithRegisterer(w.registry)}
	if !w.app.Engine.Cache {
		cacheOpts = append(cacheOpts, services.WithCacheDisabled())
	}
	return services.OpenSession(ctx, loaderFor(location, opts), location,
		services.WithSettings(w.app),
		services.WithCache(services.NewResolutionCache(cacheOpts...)),
	)
}

// bundle composes location and writes it to a SQLite bundle at out.
func (w *wiring) bundle(ctx context.Context, location, out string, opts cli.OpenOptions) (cli.BundleSummary, error) {
	doc, err := loaderFor(location, opts).Open(ctx, location)
	if err != nil {
		return cli.BundleSummary{}, err
	}
	defer doc.Close()

	stats, err := sqlitestage.Export(ctx, doc, out)
	if err != nil {
		return cli.BundleSummary{}, err
	}
	return cli.BundleSummary{
		Layers:     stats.Layers,
		Prims:      stats.Prims,
		Properties: stats.Properties,
		Samples:    stats.Samples,
	}, nil
}
