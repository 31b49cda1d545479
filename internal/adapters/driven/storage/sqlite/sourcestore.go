package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id int64) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return source, nil
}

// GetMany retrieves the sources with the given IDs.
func (s *sourceStore) GetMany(ctx context.Context, ids []int64) ([]domain.Source, error) {
	if len(ids) == 0 {
		return []domain.Source{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	return collectSources(rows)
}

// ListByModule returns all sources of a module ordered by ID.
func (s *sourceStore) ListByModule(ctx context.Context, module string) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE module = ? ORDER BY id`, module)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	return collectSources(rows)
}

// Edit applies a manual edit.
func (s *sourceStore) Edit(ctx context.Context, edit domain.SourceEdit) error {
	if edit.Visible == nil {
		return nil
	}
	result, err := s.store.db.ExecContext(ctx,
		`UPDATE sources SET visible = ? WHERE id = ?`, *edit.Visible, edit.ID)
	if err != nil {
		return fmt.Errorf("editing source: %w", err)
	}
	return requireAffected(result)
}

func collectSources(rows *sql.Rows) ([]domain.Source, error) {
	defer rows.Close()

	sources := make([]domain.Source, 0)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// requireAffected maps an update that touched no rows to domain.ErrNotFound.
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Resource Store ====================

// resourceStore implements driven.ResourceStore.
type resourceStore struct {
	store *Store
}

var _ driven.ResourceStore = (*resourceStore)(nil)

// GetBySource retrieves the resource of a source.
func (s *resourceStore) GetBySource(ctx context.Context, sourceID int64) (*domain.ResourceInfo, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE source_id = ?`, sourceID)
	resource, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return resource, nil
}

// ListByModule returns the module's resources joined with their sources.
func (s *resourceStore) ListByModule(ctx context.Context, module string) ([]domain.SourceResource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT s.id, s.url, s.module, s.title, s.moodle_id, s.type, s.visible,
			s.section_index, s.section_pos, s.time_created, s.time_modified, s.parent,
			r.id, r.source_id, r.location, r.downloaded, r.type, r.file_name, r.marked
		FROM sources s
		JOIN resources r ON r.source_id = s.id
		WHERE s.module = ? AND s.type = ?
		ORDER BY s.id
	`, module, string(domain.LinkResource))
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()

	result := make([]domain.SourceResource, 0)
	for rows.Next() {
		pair, err := scanSourceResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		result = append(result, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return result, nil
}

// scanSourceResource splits a joined row between the two scanners.
func scanSourceResource(rows *sql.Rows) (domain.SourceResource, error) {
	var pair domain.SourceResource
	var sourceType, resourceType string
	var moodleID, sectionIndex, sectionPos, created, modified, parent sql.NullInt64
	var location sql.NullString
	err := rows.Scan(
		&pair.Source.ID, &pair.Source.URL, &pair.Source.Module, &pair.Source.Title, &moodleID,
		&sourceType, &pair.Source.Visible, &sectionIndex, &sectionPos, &created, &modified, &parent,
		&pair.Resource.ID, &pair.Resource.SourceID, &location, &pair.Resource.Downloaded,
		&resourceType, &pair.Resource.FileName, &pair.Resource.Marked)
	if err != nil {
		return pair, err
	}
	pair.Source.Type = domain.LinkType(sourceType)
	pair.Source.MoodleID = int64Ptr(moodleID)
	pair.Source.Parent = int64Ptr(parent)
	if sectionIndex.Valid {
		pair.Source.Section = &domain.SectionData{SectionIndex: int(sectionIndex.Int64), Index: int(sectionPos.Int64)}
	}
	if modified.Valid {
		pair.Source.Time = &domain.TimeData{Created: created.Int64, Modified: modified.Int64}
	}
	pair.Resource.Type = domain.ResourceType(resourceType)
	if location.Valid {
		loc := location.String
		pair.Resource.Location = &loc
	}
	return pair, nil
}

// Edit applies exactly one change, in the order marked, location, downloaded.
// Setting a location marks the resource downloaded; clearing the downloaded
// flag forgets the location.
func (s *resourceStore) Edit(ctx context.Context, edit domain.ResourceEdit) error {
	var (
		result sql.Result
		err    error
	)
	switch {
	case edit.Marked != nil:
		result, err = s.store.db.ExecContext(ctx,
			`UPDATE resources SET marked = ? WHERE source_id = ?`, *edit.Marked, edit.SourceID)
	case edit.Location != nil && *edit.Location != "":
		result, err = s.store.db.ExecContext(ctx,
			`UPDATE resources SET location = ?, downloaded = 1 WHERE source_id = ?`, *edit.Location, edit.SourceID)
	case edit.Downloaded != nil:
		result, err = s.store.db.ExecContext(ctx,
			`UPDATE resources SET downloaded = ?, location = NULL WHERE source_id = ?`, *edit.Downloaded, edit.SourceID)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("editing resource: %w", err)
	}
	return requireAffected(result)
}

// ==================== Tag Store ====================

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// ListBySource returns the cached tags of a source ordered by tag name.
func (s *tagStore) ListBySource(ctx context.Context, sourceID int64) ([]domain.TagData, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT source, tag, value, def_path FROM tag_data WHERE source = ? ORDER BY tag`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := make([]domain.TagData, 0)
	for rows.Next() {
		var tag domain.TagData
		if err := rows.Scan(&tag.Source, &tag.Tag, &tag.Value, &tag.DefPath); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// Upsert stores tags in one transaction.
func (s *tagStore) Upsert(ctx context.Context, tags []domain.TagData) error {
	if len(tags) == 0 {
		return nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tag_data (source, tag, value, def_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tag, source) DO UPDATE SET
			value = excluded.value,
			def_path = excluded.def_path
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, tag := range tags {
		if _, err := stmt.ExecContext(ctx, tag.Source, tag.Tag, tag.Value, tag.DefPath); err != nil {
			return fmt.Errorf("saving tag %s: %w", tag.Tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteByModule removes the cached tags of a module.
func (s *tagStore) DeleteByModule(ctx context.Context, module string) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM tag_data WHERE source IN (SELECT id FROM sources WHERE module = ?)`, module)
	if err != nil {
		return fmt.Errorf("deleting tags: %w", err)
	}
	return nil
}
