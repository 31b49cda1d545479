package driven

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// SourceStore reads and edits the content tree.
type SourceStore interface {
	// Get retrieves a source by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*domain.Source, error)

	// GetMany retrieves the sources with the given IDs. Unknown IDs are skipped.
	GetMany(ctx context.Context, ids []int64) ([]domain.Source, error)

	// ListByModule returns all sources of a module ordered by ID.
	ListByModule(ctx context.Context, module string) ([]domain.Source, error)

	// Edit applies a manual edit.
	Edit(ctx context.Context, edit domain.SourceEdit) error
}

// ResourceStore reads and edits downloadable resources.
type ResourceStore interface {
	// GetBySource retrieves the resource of a source.
	// Returns domain.ErrNotFound if the source has none.
	GetBySource(ctx context.Context, sourceID int64) (*domain.ResourceInfo, error)

	// ListByModule returns the resources of a module joined with their
	// sources. Only sources of type resource are included.
	ListByModule(ctx context.Context, module string) ([]domain.SourceResource, error)

	// Edit applies a change to the resource of edit.SourceID.
	Edit(ctx context.Context, edit domain.ResourceEdit) error
}

// TagStore caches classification results.
type TagStore interface {
	// ListBySource returns the cached tags of a source.
	ListBySource(ctx context.Context, sourceID int64) ([]domain.TagData, error)

	// Upsert stores tags, replacing existing values for the same (source, tag).
	Upsert(ctx context.Context, tags []domain.TagData) error

	// DeleteByModule removes the cached tags of every source of a module.
	DeleteByModule(ctx context.Context, module string) error
}
