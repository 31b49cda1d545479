package driven

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// ModuleStore persists configured modules and their vessels.
type ModuleStore interface {
	// Get retrieves a module by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Module, error)

	// List returns all modules.
	List(ctx context.Context) ([]domain.Module, error)

	// Save stores or updates a module.
	Save(ctx context.Context, module domain.Module) error

	// GetVessel retrieves a vessel by ID.
	GetVessel(ctx context.Context, id string) (*domain.ModuleVessel, error)

	// ListVessels returns all vessels.
	ListVessels(ctx context.Context) ([]domain.ModuleVessel, error)

	// SaveVessel stores or updates a vessel.
	SaveVessel(ctx context.Context, vessel domain.ModuleVessel) error
}

// DetectedStore reads the detection staging area.
type DetectedStore interface {
	// ListModules returns all detected modules ordered by ID.
	ListModules(ctx context.Context) ([]domain.DetectedModule, error)

	// ListVessels returns all detected vessels ordered by ID.
	ListVessels(ctx context.Context) ([]domain.DetectedVessel, error)
}
