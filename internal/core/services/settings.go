package services

import (
	"fmt"
	"net/url"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyStorageDirectory  = "storage.directory"
	KeyStorageDatabase   = "storage.database"
	KeyMoodleURL         = "moodle.url"
	KeyMoodleToken       = "moodle.token"
	KeyMoodleCookie      = "moodle.cookie"
	KeyIngestConcurrency = "ingest.concurrency"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Storage: domain.StorageSettings{
			Directory: s.configStore.GetString(KeyStorageDirectory),
			DataDir:   s.configStore.GetString(KeyStorageDatabase),
		},
		Moodle: domain.MoodleSettings{
			URL:    s.getString(KeyMoodleURL, defaults.Moodle.URL),
			Token:  s.configStore.GetString(KeyMoodleToken),
			Cookie: s.configStore.GetString(KeyMoodleCookie),
		},
		Ingest: domain.IngestSettings{
			Concurrency: s.getPositiveInt(KeyIngestConcurrency, defaults.Ingest.Concurrency),
		},
	}, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{KeyStorageDirectory, settings.Storage.Directory, settings.Storage.Directory == ""},
		{KeyStorageDatabase, settings.Storage.DataDir, settings.Storage.DataDir == ""},
		{KeyMoodleURL, settings.Moodle.URL, false},
		{KeyMoodleToken, settings.Moodle.Token, settings.Moodle.Token == ""},
		{KeyMoodleCookie, settings.Moodle.Cookie, settings.Moodle.Cookie == ""},
		{KeyIngestConcurrency, settings.Ingest.Concurrency, settings.Ingest.Concurrency <= 0},
	}
	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetCredentials stores the web service token and session cookie.
func (s *SettingsService) SetCredentials(token, cookie string) error {
	if token == "" {
		return fmt.Errorf("%w: token must not be empty", domain.ErrInvalidInput)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Moodle.Token = token
	settings.Moodle.Cookie = cookie
	return s.Save(settings)
}

// Validate checks that the settings allow talking to the remote service.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	u, err := url.Parse(settings.Moodle.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid site url %q", domain.ErrInvalidInput, settings.Moodle.URL)
	}
	if !settings.Moodle.IsConfigured() {
		return domain.ErrMissingCredentials
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}
