package domain

// Payload types returned by the remote course web service.
// Only the fields consumed by ingestion and detection are decoded.

// SiteInfo describes the authenticated user.
type SiteInfo struct {
	UserID   int64  `json:"userid"`
	SiteName string `json:"sitename"`
	UserName string `json:"username"`
	FullName string `json:"fullname"`
}

// ContentSection is one section of a course.
type ContentSection struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Visible int             `json:"visible"`
	Section int             `json:"section"`
	Modules []ContentModule `json:"modules"`
}

// ContentModule is one course module (resource, folder, forum, ...).
type ContentModule struct {
	ID       int64           `json:"id"`
	URL      string          `json:"url,omitempty"`
	Name     string          `json:"name"`
	Instance int64           `json:"instance"`
	ModName  string          `json:"modname"`
	Visible  int             `json:"visible"`
	Contents []ModuleContent `json:"contents,omitempty"`
}

// ModuleContent is one entry of a module's contents. Only entries of
// type "file" describe downloadable files.
type ModuleContent struct {
	Type         string `json:"type"`
	FileName     string `json:"filename"`
	FilePath     string `json:"filepath"`
	FileSize     int64  `json:"filesize"`
	FileURL      string `json:"fileurl"`
	TimeCreated  *int64 `json:"timecreated"`
	TimeModified int64  `json:"timemodified"`
	MimeType     string `json:"mimetype"`
}

// EntryFile is a file attached to a database entry or an assignment.
type EntryFile struct {
	FileName       string `json:"filename"`
	FilePath       string `json:"filepath"`
	FileSize       int64  `json:"filesize"`
	FileURL        string `json:"fileurl"`
	TimeModified   int64  `json:"timemodified"`
	MimeType       string `json:"mimetype"`
	IsExternalFile bool   `json:"isexternalfile"`
}

// EntryContent is one field value of a database entry.
type EntryContent struct {
	ID       int64       `json:"id"`
	FieldID  int64       `json:"fieldid"`
	RecordID int64       `json:"recordid"`
	Files    []EntryFile `json:"files"`
}

// DataEntry is one record of a database (collection) module.
type DataEntry struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"userid"`
	DataID       int64          `json:"dataid"`
	TimeCreated  int64          `json:"timecreated"`
	TimeModified int64          `json:"timemodified"`
	Contents     []EntryContent `json:"contents"`
}

// DataEntries is the response of the database-entries function.
type DataEntries struct {
	Entries []DataEntry `json:"entries"`
}

// Course is an enrolled course.
type Course struct {
	ID          int64  `json:"id"`
	ShortName   string `json:"shortname"`
	FullName    string `json:"fullname"`
	DisplayName string `json:"displayname"`
	Category    int64  `json:"category"`
	Visible     int    `json:"visible"`
}

// Category is a course category.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
	Path   string `json:"path"`
}

// Assignment is one assignment definition.
type Assignment struct {
	ID                       int64       `json:"id"`
	CMID                     int64       `json:"cmid"`
	Course                   int64       `json:"course"`
	Name                     string      `json:"name"`
	DueDate                  int64       `json:"duedate"`
	AllowSubmissionsFromDate int64       `json:"allowsubmissionsfromdate"`
	IntroAttachments         []EntryFile `json:"introattachments"`
}

// AssignmentCourse groups assignments of one course.
type AssignmentCourse struct {
	ID          int64        `json:"id"`
	FullName    string       `json:"fullname"`
	ShortName   string       `json:"shortname"`
	Assignments []Assignment `json:"assignments"`
}

// AssignmentList is the response of the assignments function.
type AssignmentList struct {
	Courses []AssignmentCourse `json:"courses"`
}
