// Package cli implements the usdinspect command line.
// Services are built in main and injected through the Set* functions.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// OpenOptions carry the global flags that affect how a stage is opened.
type OpenOptions struct {
	// SessionLayer is an optional layer stronger than the root layer.
	SessionLayer string
}

// StageOpener opens a stage session for a location.
type StageOpener func(ctx context.Context, location string, opts OpenOptions) (driving.StageService, error)

// BundleSummary describes a written stage bundle.
type BundleSummary struct {
	Layers     int `json:"layers"`
	Prims      int `json:"prims"`
	Properties int `json:"properties"`
	Samples    int `json:"samples"`
}

// Bundler writes the stage at location to a bundle file at out.
type Bundler func(ctx context.Context, location, out string, opts OpenOptions) (BundleSummary, error)

// GlobalOptions are the persistent flags passed to the bootstrap hook.
type GlobalOptions struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap prepares services once flags are parsed.
type Bootstrap func(opts GlobalOptions) error

var (
	settingsService driving.SettingsService
	openStage       StageOpener
	bundler         Bundler
	bootstrap       Bootstrap
	metrics         *prometheus.Registry
)

var (
	verboseFlag      bool
	jsonFlag         bool
	configDirFlag    string
	sessionLayerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "usdinspect",
	Short: "Inspect composed USD-style stages",
	Long: `usdinspect opens a layered scene description and shows how it composes:
which layers author each property, which one wins, and what the winning
value evaluates to at any time code.

Stages are YAML layer files (the root layer lists its subLayers) or
SQLite stage bundles written with 'usdinspect bundle'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if bootstrap == nil {
			return nil
		}
		return bootstrap(GlobalOptions{ConfigDir: configDirFlag, Verbose: verboseFlag})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose diagnostics on stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.usdinspect)")
	rootCmd.PersistentFlags().StringVar(&sessionLayerFlag, "session-layer", "",
		"layer file composed above the root layer (YAML stages only)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the hook run after flags are parsed.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetSettingsService sets the settings service.
func SetSettingsService(svc driving.SettingsService) {
	settingsService = svc
}

// SetStageOpener sets how stage sessions are opened.
func SetStageOpener(fn StageOpener) {
	openStage = fn
}

// SetBundler sets how stage bundles are written.
func SetBundler(fn Bundler) {
	bundler = fn
}

// SetMetricsRegistry sets the registry served by 'mcp serve --port'.
func SetMetricsRegistry(reg *prometheus.Registry) {
	metrics = reg
}

// withStage opens location, runs fn and closes the session.
func withStage(ctx context.Context, location string, fn func(driving.StageService) error) error {
	if openStage == nil {
		return errors.New("stage opener not configured")
	}
	stage, err := openStage(ctx, location, openOptions())
	if err != nil {
		return fmt.Errorf("opening %s: %w", location, err)
	}
	defer func() {
		if err := stage.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing %s: %v\n", location, err)
		}
	}()
	return fn(stage)
}

func openOptions() OpenOptions {
	return OpenOptions{SessionLayer: sessionLayerFlag}
}
