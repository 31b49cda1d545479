package domain

// LinkType identifies what kind of item a Source points at.
type LinkType string

// Available link types.
const (
	LinkUnknown       LinkType = "unknown"
	LinkZoom          LinkType = "zoom"
	LinkPanopto       LinkType = "panopto"
	LinkSection       LinkType = "section"
	LinkResource      LinkType = "resource"
	LinkForum         LinkType = "forum"
	LinkChoice        LinkType = "choice"
	LinkQuizzes       LinkType = "quizzes"
	LinkAssign        LinkType = "assign"
	LinkInsignificant LinkType = "insignificant"
	LinkCollection    LinkType = "collection"
)

// IsValid returns true if the link type is recognised.
func (t LinkType) IsValid() bool {
	switch t {
	case LinkUnknown, LinkZoom, LinkPanopto, LinkSection, LinkResource, LinkForum,
		LinkChoice, LinkQuizzes, LinkAssign, LinkInsignificant, LinkCollection:
		return true
	default:
		return false
	}
}

// LinkTypeFromModName maps a remote module name onto the closed set of link types.
func LinkTypeFromModName(modName string) LinkType {
	switch modName {
	case "resource", "folder":
		return LinkResource
	case "quiz":
		return LinkQuizzes
	case "data":
		return LinkCollection
	case "forum":
		return LinkForum
	case "choice":
		return LinkChoice
	case "assign":
		return LinkAssign
	case "label", "page":
		return LinkInsignificant
	default:
		return LinkUnknown
	}
}

// SectionData locates a Source inside a course section.
type SectionData struct {
	// SectionIndex is the number of the section within the course.
	SectionIndex int `json:"sectionIndex"`

	// Index is the position of the source within its section.
	Index int `json:"index"`
}

// TimeData holds upstream creation and modification timestamps (Unix seconds).
type TimeData struct {
	Created  int64 `json:"created"`
	Modified int64 `json:"modified"`
}

// Source is a single addressable item in a module's content tree.
// The pair (URL, Module) is unique. Parent references another Source by ID
// and forms a tree; ingestion only ever links to structurally earlier items.
type Source struct {
	// ID is assigned by storage.
	ID int64

	// URL is unique within the module.
	URL string

	// Module is the identifier of the owning module.
	Module string

	// Title is the human-readable title.
	Title string

	// MoodleID is the upstream course-module id, unique when present.
	MoodleID *int64

	// Type classifies the source.
	Type LinkType

	// Visible is a user controlled visibility flag.
	Visible bool

	// Section is the section position, nil when unknown.
	Section *SectionData

	// Parent is the ID of the enclosing Source, nil for roots.
	Parent *int64

	// Time holds upstream timestamps, nil when unknown.
	Time *TimeData
}

// SourceEdit describes a manual edit of a Source.
type SourceEdit struct {
	ID      int64
	Visible *bool
}
