package domain

// DefaultMoodleURL is the site used when none is configured.
const DefaultMoodleURL = "https://moodle.uni-kassel.de"

// DefaultIngestConcurrency bounds concurrently ingested sections.
const DefaultIngestConcurrency = 4

// StorageSettings locates downloaded files and local state.
type StorageSettings struct {
	// Directory is the root of downloaded files and the config/ rule tree.
	Directory string

	// DataDir holds the database.
	DataDir string
}

// MoodleSettings configures the remote web service.
type MoodleSettings struct {
	URL    string
	Token  string
	Cookie string
}

// IsConfigured returns true if a token is set.
func (m MoodleSettings) IsConfigured() bool {
	return m.Token != ""
}

// IngestSettings tunes ingestion.
type IngestSettings struct {
	// Concurrency is the number of sections ingested at once.
	Concurrency int
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Storage StorageSettings
	Moodle  MoodleSettings
	Ingest  IngestSettings
}

// DefaultAppSettings returns settings with defaults applied.
// Directories are left empty for the caller to resolve.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Moodle: MoodleSettings{URL: DefaultMoodleURL},
		Ingest: IngestSettings{Concurrency: DefaultIngestConcurrency},
	}
}
