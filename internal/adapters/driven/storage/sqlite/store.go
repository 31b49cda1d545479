package sqlite

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Schneison/unima/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// DatabaseName is the file name of the database inside the data directory.
const DatabaseName = "unima.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.unima/data/unima.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".unima", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)

	// WAL for concurrent readers; immediate transactions take the write
	// lock up front and wait on busy_timeout instead of deadlocking.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// ResourceStore returns a ResourceStore interface backed by this store.
func (s *Store) ResourceStore() driven.ResourceStore {
	return &resourceStore{store: s}
}

// TagStore returns a TagStore interface backed by this store.
func (s *Store) TagStore() driven.TagStore {
	return &tagStore{store: s}
}

// ModuleStore returns a ModuleStore interface backed by this store.
func (s *Store) ModuleStore() driven.ModuleStore {
	return &moduleStore{store: s}
}

// DetectedStore returns a DetectedStore interface backed by this store.
func (s *Store) DetectedStore() driven.DetectedStore {
	return &detectedStore{store: s}
}

// ContentStore returns a ContentStore interface backed by this store.
func (s *Store) ContentStore() driven.ContentStore {
	return &contentStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const sourceColumns = `id, url, module, title, moodle_id, type, visible,
	section_index, section_pos, time_created, time_modified, parent`

// scanSource reads a row selected with sourceColumns.
func scanSource(row rowScanner) (*domain.Source, error) {
	var source domain.Source
	var sourceType string
	var moodleID, sectionIndex, sectionPos, created, modified, parent sql.NullInt64
	if err := row.Scan(&source.ID, &source.URL, &source.Module, &source.Title, &moodleID,
		&sourceType, &source.Visible, &sectionIndex, &sectionPos, &created, &modified, &parent); err != nil {
		return nil, err
	}
	source.Type = domain.LinkType(sourceType)
	source.MoodleID = int64Ptr(moodleID)
	source.Parent = int64Ptr(parent)
	if sectionIndex.Valid {
		source.Section = &domain.SectionData{
			SectionIndex: int(sectionIndex.Int64),
			Index:        int(sectionPos.Int64),
		}
	}
	if modified.Valid {
		source.Time = &domain.TimeData{Created: created.Int64, Modified: modified.Int64}
	}
	return &source, nil
}

const resourceColumns = `id, source_id, location, downloaded, type, file_name, marked`

func scanResource(row rowScanner) (*domain.ResourceInfo, error) {
	var resource domain.ResourceInfo
	var location sql.NullString
	var resourceType string
	if err := row.Scan(&resource.ID, &resource.SourceID, &location, &resource.Downloaded,
		&resourceType, &resource.FileName, &resource.Marked); err != nil {
		return nil, err
	}
	resource.Type = domain.ResourceType(resourceType)
	if location.Valid {
		loc := location.String
		resource.Location = &loc
	}
	return &resource, nil
}

// nullInt64 converts an optional int64 to a nullable database value.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

// nullString converts an optional string to a nullable database value.
func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func marshalSectionTitles(titles []domain.SectionTitle) (string, error) {
	if titles == nil {
		titles = []domain.SectionTitle{}
	}
	data, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("marshalling section titles: %w", err)
	}
	return string(data), nil
}

func unmarshalSectionTitles(data string) ([]domain.SectionTitle, error) {
	var titles []domain.SectionTitle
	if err := json.Unmarshal([]byte(data), &titles); err != nil {
		return nil, fmt.Errorf("unmarshalling section titles: %w", err)
	}
	return titles, nil
}
