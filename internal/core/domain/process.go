package domain

import "time"

// ProcessKind names the top-level operation a Process belongs to.
type ProcessKind string

// Process kinds.
const (
	ProcessDetect   ProcessKind = "detect"
	ProcessSync     ProcessKind = "sync"
	ProcessDownload ProcessKind = "download"
)

// Process is a caller-visible handle for a long running operation.
// Killing a process only suppresses delivery of its reply.
type Process struct {
	ID        string
	Kind      ProcessKind
	StartedAt time.Time
}

// DownloadElement is one file scheduled for download.
type DownloadElement struct {
	SourceID int64
	URL      string

	// Path is the destination; empty when no path could be derived.
	Path string
}

// DownloadResult reports the outcome of one DownloadElement.
type DownloadResult struct {
	Element DownloadElement
	Err     error
}

// SyncSchedule is the state of the periodic sync of all modules.
type SyncSchedule struct {
	Interval    time.Duration
	LastRun     time.Time
	LastSuccess time.Time
	NextRun     time.Time
	LastError   string
	Running     bool
}
