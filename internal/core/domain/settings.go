package domain

import "fmt"

// AppSettings holds user-tunable engine and presentation settings.
type AppSettings struct {
	Engine   EngineSettings
	Timeline TimelineSettings
	Watch    WatchSettings
	Log      LogSettings
}

// EngineSettings tunes the resolution engine.
type EngineSettings struct {
	// Workers bounds the pool used to fan out property resolution.
	Workers int

	// Cache toggles the resolution cache. Disabling it changes latency only.
	Cache bool
}

// TimelineSettings tunes timeline scrubbing.
type TimelineSettings struct {
	// Step is the time-code increment per scrub key press.
	Step float64

	// ScrubRate caps how many re-samples per second scrubbing may trigger.
	ScrubRate float64
}

// WatchSettings controls reloading when layer files change.
type WatchSettings struct {
	Enabled bool
}

// LogSettings controls diagnostics.
type LogSettings struct {
	Verbose bool
}

// DefaultAppSettings returns the built-in defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: EngineSettings{
			Workers: 4,
			Cache:   true,
		},
		Timeline: TimelineSettings{
			Step:      1,
			ScrubRate: 30,
		},
	}
}

// Validate checks settings for values the engine cannot run with.
func (s AppSettings) Validate() error {
	if s.Engine.Workers < 1 {
		return fmt.Errorf("%w: engine.workers must be at least 1", ErrInvalidInput)
	}
	if s.Timeline.Step <= 0 {
		return fmt.Errorf("%w: timeline.step must be positive", ErrInvalidInput)
	}
	if s.Timeline.ScrubRate <= 0 {
		return fmt.Errorf("%w: timeline.scrub_rate must be positive", ErrInvalidInput)
	}
	return nil
}
