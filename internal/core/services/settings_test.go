package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/adapters/driven/storage/memory"
	"github.com/Schneison/unima/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMoodleURL, settings.Moodle.URL)
	assert.Equal(t, domain.DefaultIngestConcurrency, settings.Ingest.Concurrency)
	assert.False(t, settings.Moodle.IsConfigured())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyMoodleURL, "https://moodle.example.org")
	_ = store.Set(KeyMoodleToken, "abc")
	_ = store.Set(KeyIngestConcurrency, int64(8))
	_ = store.Set(KeyStorageDirectory, "/srv/unima")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "https://moodle.example.org", settings.Moodle.URL)
	assert.Equal(t, "abc", settings.Moodle.Token)
	assert.Equal(t, 8, settings.Ingest.Concurrency)
	assert.Equal(t, "/srv/unima", settings.Storage.Directory)
}

func TestSettingsService_Get_NonPositiveConcurrencyFallsBack(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyIngestConcurrency, -2)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultIngestConcurrency, settings.Ingest.Concurrency)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.Save(&domain.AppSettings{
		Storage: domain.StorageSettings{Directory: "/data/files"},
		Moodle:  domain.MoodleSettings{URL: "https://m.example", Token: "t"},
		Ingest:  domain.IngestSettings{Concurrency: 2},
	})
	require.NoError(t, err)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/data/files", settings.Storage.Directory)
	assert.Equal(t, "https://m.example", settings.Moodle.URL)
	assert.Equal(t, "t", settings.Moodle.Token)
	assert.Equal(t, 2, settings.Ingest.Concurrency)

	_, exists := store.Get(KeyMoodleCookie)
	assert.False(t, exists, "empty cookie is not written")
}

func TestSettingsService_SetCredentials(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetCredentials("token-1", "MoodleSession=xyz"))

	assert.Equal(t, "token-1", store.GetString(KeyMoodleToken))
	assert.Equal(t, "MoodleSession=xyz", store.GetString(KeyMoodleCookie))

	err := service.SetCredentials("", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	assert.ErrorIs(t, service.Validate(), domain.ErrMissingCredentials)

	_ = store.Set(KeyMoodleToken, "t")
	assert.NoError(t, service.Validate())

	_ = store.Set(KeyMoodleURL, "not a url")
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}
