package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// Begin starts an immediate transaction.
func (s *contentStore) Begin(ctx context.Context) (driven.ContentTx, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &contentTx{tx: tx}, nil
}

// contentTx implements driven.ContentTx. Module goroutines of one section
// share it, so every statement runs under mu.
type contentTx struct {
	mu sync.Mutex
	tx *sql.Tx
}

var _ driven.ContentTx = (*contentTx)(nil)

func (t *contentTx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.ExecContext(ctx, query, args...)
}

// SelectOrInsertSource returns the ID of the source keyed by (URL, Module).
func (t *contentTx) SelectOrInsertSource(ctx context.Context, source domain.Source) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sources (url, module, title, moodle_id, type, visible)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT DO NOTHING
	`, source.URL, source.Module, source.Title, nullInt64(source.MoodleID), string(source.Type))
	if err != nil {
		return 0, fmt.Errorf("inserting source %s: %w", source.URL, err)
	}

	var id int64
	err = t.tx.QueryRowContext(ctx,
		`SELECT id FROM sources WHERE url = ? AND module = ?`, source.URL, source.Module).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The insert was dropped by a conflict on another unique key.
			return 0, fmt.Errorf("source %s: %w", source.URL, domain.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("selecting source %s: %w", source.URL, err)
	}
	return id, nil
}

// SourceByMoodleID finds a module's source by its upstream ID.
func (t *contentTx) SourceByMoodleID(ctx context.Context, module string, moodleID int64) (*domain.Source, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.tx.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE module = ? AND moodle_id = ?`, module, moodleID)
	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return source, nil
}

// UpdateSourceSection sets the section position of a source.
func (t *contentTx) UpdateSourceSection(ctx context.Context, id int64, section domain.SectionData) error {
	_, err := t.exec(ctx, `UPDATE sources SET section_index = ?, section_pos = ? WHERE id = ?`,
		section.SectionIndex, section.Index, id)
	if err != nil {
		return fmt.Errorf("updating section of source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceTime sets the upstream timestamps of a source.
func (t *contentTx) UpdateSourceTime(ctx context.Context, id int64, data domain.TimeData) error {
	_, err := t.exec(ctx, `UPDATE sources SET time_created = ?, time_modified = ? WHERE id = ?`,
		data.Created, data.Modified, id)
	if err != nil {
		return fmt.Errorf("updating time of source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceParent links a source to its enclosing source.
func (t *contentTx) UpdateSourceParent(ctx context.Context, id, parent int64) error {
	if id == parent {
		return fmt.Errorf("source %d: %w", id, domain.ErrParentCycle)
	}
	_, err := t.exec(ctx, `UPDATE sources SET parent = ? WHERE id = ?`, parent, id)
	if err != nil {
		return fmt.Errorf("updating parent of source %d: %w", id, err)
	}
	return nil
}

// InsertResource adds the resource of a source, ignoring conflicts.
func (t *contentTx) InsertResource(ctx context.Context, resource domain.ResourceInfo) error {
	_, err := t.exec(ctx, `
		INSERT INTO resources (source_id, location, downloaded, type, file_name, marked)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, resource.SourceID, nullString(resource.Location), resource.Downloaded,
		string(resource.Type), resource.FileName, resource.Marked)
	if err != nil {
		return fmt.Errorf("inserting resource of source %d: %w", resource.SourceID, err)
	}
	return nil
}

// InsertDetectedVessel returns the ID of the vessel with the title.
func (t *contentTx) InsertDetectedVessel(ctx context.Context, title string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id int64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM detected_vessels WHERE title = ?`, title).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("selecting detected vessel: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `INSERT INTO detected_vessels (title) VALUES (?)`, title)
	if err != nil {
		return 0, fmt.Errorf("inserting detected vessel: %w", err)
	}
	return result.LastInsertId()
}

// InsertDetectedModule adds a detected module, ignoring conflicts.
func (t *contentTx) InsertDetectedModule(ctx context.Context, module domain.DetectedModule) error {
	titles, err := marshalSectionTitles(module.SectionTitles)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, `
		INSERT INTO detected_modules (module_internal, vessel_id, url, title, marked, section_titles)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(module_internal) DO NOTHING
	`, module.ModuleInternal, sql.NullInt64{Int64: module.VesselID, Valid: module.VesselID != 0}, module.URL, module.Title, module.Marked, titles)
	if err != nil {
		return fmt.Errorf("inserting detected module %d: %w", module.ModuleInternal, err)
	}
	return nil
}

// UpdateSectionTitles replaces the section titles of a course.
func (t *contentTx) UpdateSectionTitles(ctx context.Context, courseID int64, titles []domain.SectionTitle) error {
	data, err := marshalSectionTitles(titles)
	if err != nil {
		return err
	}
	if _, err := t.exec(ctx, `UPDATE modules SET section_titles = ? WHERE internal_id = ?`, data, courseID); err != nil {
		return fmt.Errorf("updating module section titles: %w", err)
	}
	if _, err := t.exec(ctx, `UPDATE detected_modules SET section_titles = ? WHERE module_internal = ?`,
		data, courseID); err != nil {
		return fmt.Errorf("updating detected module section titles: %w", err)
	}
	return nil
}

// Commit makes the writes visible.
func (t *contentTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback discards the writes.
func (t *contentTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}
