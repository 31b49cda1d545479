package domain

// MissingSectionName is used when a section has no known title.
const MissingSectionName = "missing_name"

// SectionTitle is the decoded title of one course section.
type SectionTitle struct {
	Title string `json:"title"`
	Index int    `json:"index"`
}

// Module is a course as configured locally ("Kurs").
type Module struct {
	ID        string
	Title     string
	Directory string

	// InternalID is the numeric course id used upstream.
	InternalID int64

	URL           string
	Color         string
	Vessel        string
	SectionTitles []SectionTitle
	Structure     string
}

// SectionName returns the title at the given position or MissingSectionName.
func (m *Module) SectionName(sectionIndex int) string {
	if sectionIndex >= 0 && sectionIndex < len(m.SectionTitles) {
		return m.SectionTitles[sectionIndex].Title
	}
	return MissingSectionName
}

// ModuleVessel is a user-facing grouping of modules ("Semester").
type ModuleVessel struct {
	ID        string
	Title     string
	Directory string
	Color     string
}

// DetectedModule is a remote course found during detection, awaiting confirmation.
type DetectedModule struct {
	ID int64

	// ModuleInternal is the upstream course id, unique.
	ModuleInternal int64

	// VesselID references the DetectedVessel grouping this course.
	VesselID int64

	URL           string
	Title         string
	Marked        bool
	SectionTitles []SectionTitle
}

// DetectedVessel is a remote category found during detection.
type DetectedVessel struct {
	ID int64

	// Title is the decoded category name, unique.
	Title string

	// InstanceID references a confirmed ModuleVessel, empty until confirmed.
	InstanceID string
}
