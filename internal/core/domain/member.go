package domain

// ArchitectureType selects how a module's members are arranged.
type ArchitectureType string

// Available architectures.
const (
	// ArchitectureSource mirrors the upstream section/parent hierarchy.
	ArchitectureSource ArchitectureType = "source"

	// ArchitectureStructure arranges resources by their derived paths.
	ArchitectureStructure ArchitectureType = "structure"
)

// IsValid returns true if the architecture is recognised.
func (a ArchitectureType) IsValid() bool {
	return a == ArchitectureSource || a == ArchitectureStructure
}

// Sorting orders sibling members by title.
type Sorting string

// Sort orders.
const (
	SortAscending  Sorting = "ascending"
	SortDescending Sorting = "descending"
)

// ArchitectureOptions configures member tree creation.
type ArchitectureOptions struct {
	Type       ArchitectureType
	Sorting    Sorting
	SearchTerm string
}

// MemberAction is an action that can be applied to a member.
type MemberAction string

// Member actions.
const (
	ActionFileDownload MemberAction = "file_download"
	ActionFileOpen     MemberAction = "file_open"
	ActionFileDelete   MemberAction = "file_delete"
	ActionLinkOpen     MemberAction = "link_open"
	ActionMissing      MemberAction = "missing"
)

// MainActionFor derives the primary action for a source from its resource.
func MainActionFor(sourceType LinkType, resource *ResourceInfo) MemberAction {
	if sourceType != LinkResource || resource == nil {
		return ActionMissing
	}
	switch resource.Type {
	case ResourceZip, ResourcePDF, ResourceText:
		if resource.Downloaded {
			return ActionFileOpen
		}
		return ActionFileDownload
	default:
		return ActionLinkOpen
	}
}

// MemberResource summarises the resource attached to a member.
type MemberResource struct {
	ID         int64
	Downloaded bool
	FileType   ResourceType
	FileName   string
}

// MemberDetail carries the leaf payload of a member.
type MemberDetail struct {
	SourceID   int64
	Title      string
	Visible    bool
	Type       LinkType
	MainAction MemberAction
	Resource   *MemberResource
	Tags       map[string]string
}

// Member is a node of a member tree. Leaves carry Details.
type Member struct {
	Title    string
	Children []*Member
	Details  *MemberDetail
}

// RootMember is the root of a member tree.
// Lexicon maps source IDs to the joined path of their member.
type RootMember struct {
	Member
	Lexicon map[int64]string
}

// SectionChild is a source listed in a section, with its direct children.
type SectionChild struct {
	Source   Source
	Children []Source
}

// SectionItem lists the top-level sources of one section ordered by position.
type SectionItem struct {
	Index    int
	Children []SectionChild
}
