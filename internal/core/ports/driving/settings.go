package driving

import "github.com/Schneison/unima/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetCredentials stores the web service token and session cookie.
	SetCredentials(token, cookie string) error

	// Validate checks that the settings allow talking to the remote service.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
