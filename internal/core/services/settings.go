package services

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEngineWorkers     = "engine.workers"
	keyEngineCache       = "engine.cache"
	keyTimelineStep      = "timeline.step"
	keyTimelineScrubRate = "timeline.scrub_rate"
	keyWatchEnabled      = "watch.enabled"
	keyLogVerbose        = "log.verbose"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults for
// keys that are unset.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Engine: domain.EngineSettings{
			Workers: s.getInt(keyEngineWorkers, defaults.Engine.Workers),
			Cache:   s.getBool(keyEngineCache, defaults.Engine.Cache),
		},
		Timeline: domain.TimelineSettings{
			Step:      s.getFloat(keyTimelineStep, defaults.Timeline.Step),
			ScrubRate: s.getFloat(keyTimelineScrubRate, defaults.Timeline.ScrubRate),
		},
		Watch: domain.WatchSettings{
			Enabled: s.getBool(keyWatchEnabled, defaults.Watch.Enabled),
		},
		Log: domain.LogSettings{
			Verbose: s.getBool(keyLogVerbose, defaults.Log.Verbose),
		},
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(keyEngineWorkers, settings.Engine.Workers); err != nil {
		return fmt.Errorf("save engine workers: %w", err)
	}
	if err := s.configStore.Set(keyEngineCache, settings.Engine.Cache); err != nil {
		return fmt.Errorf("save engine cache: %w", err)
	}
	if err := s.configStore.Set(keyTimelineStep, settings.Timeline.Step); err != nil {
		return fmt.Errorf("save timeline step: %w", err)
	}
	if err := s.configStore.Set(keyTimelineScrubRate, settings.Timeline.ScrubRate); err != nil {
		return fmt.Errorf("save timeline scrub_rate: %w", err)
	}
	if err := s.configStore.Set(keyWatchEnabled, settings.Watch.Enabled); err != nil {
		return fmt.Errorf("save watch enabled: %w", err)
	}
	if err := s.configStore.Set(keyLogVerbose, settings.Log.Verbose); err != nil {
		return fmt.Errorf("save log verbose: %w", err)
	}

	return nil
}

// Set parses raw for the given key and saves the updated settings.
func (s *SettingsService) Set(key, raw string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyEngineWorkers:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		settings.Engine.Workers = n
	case keyTimelineStep, keyTimelineScrubRate:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		if key == keyTimelineStep {
			settings.Timeline.Step = f
		} else {
			settings.Timeline.ScrubRate = f
		}
	case keyEngineCache, keyWatchEnabled, keyLogVerbose:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		switch key {
		case keyEngineCache:
			settings.Engine.Cache = b
		case keyWatchEnabled:
			settings.Watch.Enabled = b
		default:
			settings.Log.Verbose = b
		}
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.Save(settings)
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyEngineWorkers, keyEngineCache,
		keyTimelineStep, keyTimelineScrubRate,
		keyWatchEnabled, keyLogVerbose,
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
