package driven

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// ContentStore opens transactions for ingestion writes.
type ContentStore interface {
	// Begin starts a transaction.
	Begin(ctx context.Context) (ContentTx, error)
}

// ContentTx is one ingestion transaction. Implementations must be safe
// for concurrent use; calls are serialised inside the transaction.
// Every insert is idempotent on its unique key.
type ContentTx interface {
	// SelectOrInsertSource returns the ID of the source keyed by
	// (URL, Module), inserting it as visible if it does not exist.
	// Existing rows are not modified.
	SelectOrInsertSource(ctx context.Context, source domain.Source) (int64, error)

	// SourceByMoodleID finds a module's source by its upstream ID.
	// Returns domain.ErrNotFound if there is none.
	SourceByMoodleID(ctx context.Context, module string, moodleID int64) (*domain.Source, error)

	// UpdateSourceSection sets the section position of a source.
	UpdateSourceSection(ctx context.Context, id int64, section domain.SectionData) error

	// UpdateSourceTime sets the upstream timestamps of a source.
	UpdateSourceTime(ctx context.Context, id int64, t domain.TimeData) error

	// UpdateSourceParent links a source to its enclosing source.
	UpdateSourceParent(ctx context.Context, id, parent int64) error

	// InsertResource adds the resource of a source, ignoring conflicts.
	InsertResource(ctx context.Context, resource domain.ResourceInfo) error

	// InsertDetectedVessel returns the ID of the vessel with the title,
	// inserting it if it does not exist.
	InsertDetectedVessel(ctx context.Context, title string) (int64, error)

	// InsertDetectedModule adds a detected module, ignoring conflicts on
	// its upstream course ID.
	InsertDetectedModule(ctx context.Context, module domain.DetectedModule) error

	// UpdateSectionTitles replaces the section titles of the module and
	// the detected module with the given upstream course ID.
	UpdateSectionTitles(ctx context.Context, courseID int64, titles []domain.SectionTitle) error

	// Commit makes the writes visible.
	Commit() error

	// Rollback discards the writes. It is a no-op after Commit.
	Rollback() error
}
