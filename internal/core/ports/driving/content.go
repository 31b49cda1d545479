package driving

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// ContentEngine materialises the remote course model into local storage.
type ContentEngine interface {
	// Sync ingests the contents and assignments of a module.
	Sync(ctx context.Context, moduleID string) error

	// SyncAll syncs every configured module.
	SyncAll(ctx context.Context) error

	// Detect fills the detection staging area with the user's courses.
	Detect(ctx context.Context) error

	// UpdateModuleContent runs Sync as a process. The channel yields the
	// result unless the process is killed first.
	UpdateModuleContent(ctx context.Context, moduleID string) (domain.Process, <-chan error)

	// FindModules runs Detect as a process.
	FindModules(ctx context.Context) (domain.Process, <-chan error)
}

// ProcessService tracks long running operations.
type ProcessService interface {
	// Request registers a new process.
	Request(kind domain.ProcessKind) domain.Process

	// Kill suppresses delivery of the process reply.
	Kill(id string) bool

	// List returns the running processes.
	List() []domain.Process
}

// Scheduler periodically syncs all modules.
type Scheduler interface {
	// Start blocks until Stop is called or the context is done.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for a running sync.
	Stop() error

	// Status returns a snapshot of the schedule.
	Status() domain.SyncSchedule
}
