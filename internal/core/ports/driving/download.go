package driving

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
)

// DownloadService downloads resources into the storage directory.
type DownloadService interface {
	// RequestDownload queues a source for download. With check set the
	// request is dropped when the file already exists.
	RequestDownload(ctx context.Context, sourceID int64, check bool) error

	// Wait blocks until the queue is drained.
	Wait(ctx context.Context) error

	// Results returns the results of the completed drains since the last call.
	Results() []domain.DownloadResult

	// GetPath returns the destination of a source's file.
	// Returns domain.ErrMissingPath if none can be derived.
	GetPath(ctx context.Context, sourceID int64) (string, error)

	// FileExists returns the location of a source's file, or "" when it
	// does not exist. extensively also probes the derived path; update
	// records the outcome on the resource.
	FileExists(ctx context.Context, sourceID int64, extensively, update bool) (string, error)

	// DeleteFile removes a downloaded file and clears its location.
	DeleteFile(ctx context.Context, sourceID int64) (bool, error)
}
