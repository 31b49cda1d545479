package domain

// ResourceType is the MIME-ish type of a downloadable resource.
type ResourceType string

// Known resource types. Other MIME strings are stored as reported upstream.
const (
	ResourcePDF     ResourceType = "application/pdf"
	ResourceText    ResourceType = "text/plain"
	ResourceZip     ResourceType = "application/zip"
	ResourceMPEG    ResourceType = "video/mpeg"
	ResourceMP4     ResourceType = "video/mp4"
	ResourceUnknown ResourceType = "unknown"
)

// ResourceInfo is the downloadable-file facet of a Source.
// There is at most one ResourceInfo per Source.
type ResourceInfo struct {
	ID       int64
	SourceID int64

	// Location is the absolute filesystem path once downloaded, unique when set.
	Location *string

	Downloaded bool
	Type       ResourceType

	// FileName is empty when the upstream reported none.
	FileName string

	// Marked records user or ingestion intent to keep the file.
	Marked bool
}

// ResourceEdit describes a change to a ResourceInfo.
// Exactly one of the fields is applied, in the order Marked, Location, Downloaded.
type ResourceEdit struct {
	SourceID   int64
	Location   *string
	Downloaded *bool
	Marked     *bool
}

// TagData is one cached classification result.
// At most one value exists per (Source, Tag).
type TagData struct {
	Source int64
	Tag    string
	Value  string

	// DefPath names the classification rule that produced the value.
	DefPath string
}

// StructureInfo joins a resource with its resolved tags and derived path.
type StructureInfo struct {
	Source   Source
	Resource ResourceInfo
	Tags     map[string]string
	PathName string
}

// SourceResource pairs a Source with its ResourceInfo.
type SourceResource struct {
	Source   Source
	Resource ResourceInfo
}
