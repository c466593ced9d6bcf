package driving

import "github.com/custodia-labs/usdinspect/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults for unset keys.
	Get() (*domain.AppSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.AppSettings) error

	// Set parses and saves a single "section.key" setting.
	Set(key, raw string) error

	// Keys returns every settable key.
	Keys() []string
}
