package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// ==================== Module Store ====================

// moduleStore implements driven.ModuleStore.
type moduleStore struct {
	store *Store
}

var _ driven.ModuleStore = (*moduleStore)(nil)

const moduleColumns = `id, title, directory, internal_id, url, color, vessel, section_titles, structure`

// Get retrieves a module by ID.
func (s *moduleStore) Get(ctx context.Context, id string) (*domain.Module, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = ?`, id)
	module, err := scanModule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return module, nil
}

// List returns all modules ordered by ID.
func (s *moduleStore) List(ctx context.Context) ([]domain.Module, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+moduleColumns+` FROM modules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying modules: %w", err)
	}
	defer rows.Close()

	modules := make([]domain.Module, 0)
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modules: %w", err)
	}
	return modules, nil
}

// Save stores or updates a module.
func (s *moduleStore) Save(ctx context.Context, module domain.Module) error {
	if module.ID == "" {
		return fmt.Errorf("%w: module id is empty", domain.ErrInvalidInput)
	}
	titles, err := marshalSectionTitles(module.SectionTitles)
	if err != nil {
		return err
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO modules (id, title, directory, internal_id, url, color, vessel, section_titles, structure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			directory = excluded.directory,
			internal_id = excluded.internal_id,
			url = excluded.url,
			color = excluded.color,
			vessel = excluded.vessel,
			section_titles = excluded.section_titles,
			structure = excluded.structure
	`, module.ID, module.Title, module.Directory, module.InternalID, module.URL,
		module.Color, module.Vessel, titles, module.Structure)
	if err != nil {
		return fmt.Errorf("saving module: %w", err)
	}
	return nil
}

// GetVessel retrieves a vessel by ID.
func (s *moduleStore) GetVessel(ctx context.Context, id string) (*domain.ModuleVessel, error) {
	var vessel domain.ModuleVessel
	err := s.store.db.QueryRowContext(ctx,
		`SELECT id, title, directory, color FROM vessels WHERE id = ?`, id).
		Scan(&vessel.ID, &vessel.Title, &vessel.Directory, &vessel.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning vessel: %w", err)
	}
	return &vessel, nil
}

// ListVessels returns all vessels ordered by ID.
func (s *moduleStore) ListVessels(ctx context.Context) ([]domain.ModuleVessel, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, title, directory, color FROM vessels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying vessels: %w", err)
	}
	defer rows.Close()

	vessels := make([]domain.ModuleVessel, 0)
	for rows.Next() {
		var vessel domain.ModuleVessel
		if err := rows.Scan(&vessel.ID, &vessel.Title, &vessel.Directory, &vessel.Color); err != nil {
			return nil, fmt.Errorf("scanning vessel: %w", err)
		}
		vessels = append(vessels, vessel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vessels: %w", err)
	}
	return vessels, nil
}

// SaveVessel stores or updates a vessel.
func (s *moduleStore) SaveVessel(ctx context.Context, vessel domain.ModuleVessel) error {
	if vessel.ID == "" {
		return fmt.Errorf("%w: vessel id is empty", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO vessels (id, title, directory, color)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			directory = excluded.directory,
			color = excluded.color
	`, vessel.ID, vessel.Title, vessel.Directory, vessel.Color)
	if err != nil {
		return fmt.Errorf("saving vessel: %w", err)
	}
	return nil
}

func scanModule(row rowScanner) (*domain.Module, error) {
	var module domain.Module
	var titles string
	if err := row.Scan(&module.ID, &module.Title, &module.Directory, &module.InternalID, &module.URL,
		&module.Color, &module.Vessel, &titles, &module.Structure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning module: %w", err)
	}
	sectionTitles, err := unmarshalSectionTitles(titles)
	if err != nil {
		return nil, err
	}
	module.SectionTitles = sectionTitles
	return &module, nil
}

// ==================== Detected Store ====================

// detectedStore implements driven.DetectedStore.
type detectedStore struct {
	store *Store
}

var _ driven.DetectedStore = (*detectedStore)(nil)

// ListModules returns all detected modules ordered by ID.
func (s *detectedStore) ListModules(ctx context.Context) ([]domain.DetectedModule, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, module_internal, vessel_id, url, title, marked, section_titles
		FROM detected_modules ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying detected modules: %w", err)
	}
	defer rows.Close()

	modules := make([]domain.DetectedModule, 0)
	for rows.Next() {
		var module domain.DetectedModule
		var vesselID sql.NullInt64
		var titles string
		if err := rows.Scan(&module.ID, &module.ModuleInternal, &vesselID, &module.URL,
			&module.Title, &module.Marked, &titles); err != nil {
			return nil, fmt.Errorf("scanning detected module: %w", err)
		}
		module.VesselID = vesselID.Int64
		if module.SectionTitles, err = unmarshalSectionTitles(titles); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating detected modules: %w", err)
	}
	return modules, nil
}

// ListVessels returns all detected vessels ordered by ID.
func (s *detectedStore) ListVessels(ctx context.Context) ([]domain.DetectedVessel, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, title, instance_id FROM detected_vessels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying detected vessels: %w", err)
	}
	defer rows.Close()

	vessels := make([]domain.DetectedVessel, 0)
	for rows.Next() {
		var vessel domain.DetectedVessel
		if err := rows.Scan(&vessel.ID, &vessel.Title, &vessel.InstanceID); err != nil {
			return nil, fmt.Errorf("scanning detected vessel: %w", err)
		}
		vessels = append(vessels, vessel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating detected vessels: %w", err)
	}
	return vessels, nil
}
