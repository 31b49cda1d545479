package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
)

// Ensure MemberService implements the interface.
var _ driving.MemberService = (*MemberService)(nil)

// missingSection is the section member of sources without a section.
const missingSection = "Missing Section"

// rootTitle is the title of every member tree root.
const rootTitle = "."

// MemberService arranges module content into member trees and applies
// member actions.
type MemberService struct {
	controller driving.ResourceController
	downloads  driving.DownloadService
	sources    driven.SourceStore
	resources  driven.ResourceStore
	modules    driven.ModuleStore
}

// NewMemberService creates a member service.
func NewMemberService(
	controller driving.ResourceController,
	downloads driving.DownloadService,
	sources driven.SourceStore,
	resources driven.ResourceStore,
	modules driven.ModuleStore,
) *MemberService {
	return &MemberService{
		controller: controller,
		downloads:  downloads,
		sources:    sources,
		resources:  resources,
		modules:    modules,
	}
}

// SelectSectionItems groups the sources of a module by section. Within a
// section sources are ordered by position and carry their direct children.
func (s *MemberService) SelectSectionItems(ctx context.Context, module string) (map[int]*domain.SectionItem, error) {
	sources, err := s.sources.ListByModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	children := make(map[int64][]domain.Source)
	for _, source := range sources {
		if source.Parent != nil {
			children[*source.Parent] = append(children[*source.Parent], source)
		}
	}

	sections := make(map[int]*domain.SectionItem)
	for _, source := range sources {
		if source.Section == nil {
			continue
		}
		index := source.Section.SectionIndex
		item, ok := sections[index]
		if !ok {
			item = &domain.SectionItem{Index: index}
			sections[index] = item
		}
		item.Children = append(item.Children, domain.SectionChild{Source: source, Children: children[source.ID]})
	}
	for _, item := range sections {
		sort.SliceStable(item.Children, func(i, j int) bool {
			return item.Children[i].Source.Section.Index < item.Children[j].Source.Section.Index
		})
	}
	return sections, nil
}

// SelectMembers builds the structure tree in ascending order.
func (s *MemberService) SelectMembers(ctx context.Context, module string) (*domain.RootMember, error) {
	return s.CreateMembers(ctx, module, domain.ArchitectureOptions{
		Type:    domain.ArchitectureStructure,
		Sorting: domain.SortAscending,
	})
}

// CreateMembers builds the member tree of a module.
func (s *MemberService) CreateMembers(ctx context.Context, moduleID string, opts domain.ArchitectureOptions) (*domain.RootMember, error) {
	if opts.Type == "" {
		opts.Type = domain.ArchitectureStructure
	}
	if !opts.Type.IsValid() {
		return nil, fmt.Errorf("%w: architecture %q", domain.ErrInvalidInput, opts.Type)
	}
	module, err := s.modules.Get(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get module %s: %w", moduleID, err)
	}

	tree := newMemberTree(opts.SearchTerm)
	switch opts.Type {
	case domain.ArchitectureSource:
		err = s.addSourceMembers(ctx, module, tree)
	case domain.ArchitectureStructure:
		err = s.addStructureMembers(ctx, module, tree)
	}
	if err != nil {
		return nil, err
	}
	return tree.bake(opts.Sorting), nil
}

// addSourceMembers mirrors the upstream hierarchy: section, parents, source.
func (s *MemberService) addSourceMembers(ctx context.Context, module *domain.Module, tree *memberTree) error {
	sources, err := s.sources.ListByModule(ctx, module.ID)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	pairs, err := s.resources.ListByModule(ctx, module.ID)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}
	resources := make(map[int64]*domain.ResourceInfo, len(pairs))
	for i := range pairs {
		resources[pairs[i].Source.ID] = &pairs[i].Resource
	}
	byID := make(map[int64]*domain.Source, len(sources))
	for i := range sources {
		byID[sources[i].ID] = &sources[i]
	}

	for i := range sources {
		source := &sources[i]
		var parents []string
		top := source
		visited := map[int64]bool{source.ID: true}
		for par := source.Parent; par != nil; {
			parent, ok := byID[*par]
			if !ok || visited[parent.ID] {
				break
			}
			visited[parent.ID] = true
			parents = append(parents, parent.Title)
			top = parent
			par = parent.Parent
		}

		section := missingSection
		if title, ok := sectionTitle(module, source); ok {
			section = title
		} else if title, ok := sectionTitle(module, top); ok {
			section = title
		}

		path := make([]string, 0, len(parents)+2)
		path = append(path, section)
		for j := len(parents) - 1; j >= 0; j-- {
			path = append(path, parents[j])
		}
		path = append(path, source.Title)
		tree.add(source.ID, newMemberDetail(source, resources[source.ID], nil), path...)
	}
	return nil
}

// addStructureMembers arranges the resources of a module by derived path.
func (s *MemberService) addStructureMembers(ctx context.Context, module *domain.Module, tree *memberTree) error {
	if err := s.controller.OnModuleLoad(ctx, module); err != nil {
		return err
	}
	infos, err := s.controller.LoadStructureComplete(ctx, module)
	if err != nil {
		return err
	}
	for i := range infos {
		info := &infos[i]
		detail := newMemberDetail(&info.Source, &info.Resource, info.Tags)
		detail.Title = info.Resource.FileName
		tree.add(info.Source.ID, detail, info.PathName, info.Resource.FileName)
	}
	return nil
}

func sectionTitle(module *domain.Module, source *domain.Source) (string, bool) {
	if source.Section == nil {
		return "", false
	}
	i := source.Section.SectionIndex
	if i < 0 || i >= len(module.SectionTitles) {
		return "", false
	}
	return module.SectionTitles[i].Title, true
}

func newMemberDetail(source *domain.Source, resource *domain.ResourceInfo, tags map[string]string) *domain.MemberDetail {
	detail := &domain.MemberDetail{
		SourceID:   source.ID,
		Title:      source.Title,
		Visible:    source.Visible,
		Type:       source.Type,
		MainAction: domain.MainActionFor(source.Type, resource),
		Tags:       tags,
	}
	if resource != nil {
		detail.Resource = &domain.MemberResource{
			ID:         resource.SourceID,
			Downloaded: resource.Downloaded,
			FileType:   resource.Type,
			FileName:   resource.FileName,
		}
	}
	return detail
}

// ApplyAction applies a member action to a source. file_open and
// link_open return the location to open.
func (s *MemberService) ApplyAction(ctx context.Context, sourceID int64, arch domain.ArchitectureType, action domain.MemberAction) (string, error) {
	if !arch.IsValid() {
		return "", fmt.Errorf("%w: architecture %q", domain.ErrInvalidInput, arch)
	}
	switch action {
	case domain.ActionFileDownload:
		return "", s.downloads.RequestDownload(ctx, sourceID, true)
	case domain.ActionFileOpen:
		loc, err := s.downloads.FileExists(ctx, sourceID, false, true)
		if err != nil {
			return "", err
		}
		if loc == "" {
			return "", fmt.Errorf("source %d is not downloaded: %w", sourceID, domain.ErrNotFound)
		}
		return loc, nil
	case domain.ActionFileDelete:
		_, err := s.downloads.DeleteFile(ctx, sourceID)
		return "", err
	case domain.ActionLinkOpen:
		source, err := s.sources.Get(ctx, sourceID)
		if err != nil {
			return "", err
		}
		return source.URL, nil
	case domain.ActionMissing:
		return "", nil
	default:
		return "", fmt.Errorf("%w: action %q", domain.ErrInvalidInput, action)
	}
}

// EditSource applies a manual source edit.
func (s *MemberService) EditSource(ctx context.Context, edit domain.SourceEdit) error {
	return s.sources.Edit(ctx, edit)
}

// EditResource applies a manual resource edit.
func (s *MemberService) EditResource(ctx context.Context, edit domain.ResourceEdit) error {
	return s.resources.Edit(ctx, edit)
}

// ==================== Member Tree ====================

type rawMember struct {
	children map[string]*rawMember
	details  *domain.MemberDetail
}

type memberTree struct {
	root    *rawMember
	lexicon map[int64]string
	search  string
}

func newMemberTree(search string) *memberTree {
	return &memberTree{
		root:    &rawMember{children: map[string]*rawMember{}},
		lexicon: make(map[int64]string),
		search:  strings.ToLower(strings.TrimSpace(search)),
	}
}

// add places a leaf below the given path. Segments are split at path
// separators and empty segments are dropped. A later leaf on the same
// path replaces the earlier one.
func (t *memberTree) add(id int64, details *domain.MemberDetail, path ...string) {
	if t.search != "" && !strings.Contains(strings.ToLower(details.Title), t.search) {
		return
	}
	var segments []string
	for _, p := range path {
		for _, part := range strings.Split(p, string(os.PathSeparator)) {
			if part != "" {
				segments = append(segments, part)
			}
		}
	}
	if len(segments) == 0 {
		return
	}

	node := t.root
	for _, segment := range segments {
		child, ok := node.children[segment]
		if !ok {
			child = &rawMember{children: map[string]*rawMember{}}
			node.children[segment] = child
		}
		node = child
	}
	node.details = details
	t.lexicon[id] = filepath.Join(segments...)
}

func (t *memberTree) bake(sorting domain.Sorting) *domain.RootMember {
	root := bakeMember(t.root, rootTitle, sorting)
	return &domain.RootMember{Member: *root, Lexicon: t.lexicon}
}

func bakeMember(raw *rawMember, title string, sorting domain.Sorting) *domain.Member {
	if len(raw.children) == 0 {
		return &domain.Member{Title: title, Details: raw.details}
	}
	names := make([]string, 0, len(raw.children))
	for name := range raw.children {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a == b {
			a, b = names[i], names[j]
		}
		if sorting == domain.SortDescending {
			return a > b
		}
		return a < b
	})
	member := &domain.Member{Title: title, Children: make([]*domain.Member, 0, len(names))}
	for _, name := range names {
		member.Children = append(member.Children, bakeMember(raw.children[name], name, sorting))
	}
	return member
}
