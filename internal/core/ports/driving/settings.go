package driving

import "github.com/custodia-labs/annotator/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEditMode turns edit mode on or off.
	SetEditMode(enabled bool) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
