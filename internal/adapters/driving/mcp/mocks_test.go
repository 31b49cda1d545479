package mcp

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/rules"
)

// mockContentEngine is a mock implementation of driving.ContentEngine.
type mockContentEngine struct {
	synced   []string
	syncAll  int
	detected int
	err      error
}

func (m *mockContentEngine) Sync(_ context.Context, moduleID string) error {
	m.synced = append(m.synced, moduleID)
	return m.err
}

func (m *mockContentEngine) SyncAll(_ context.Context) error {
	m.syncAll++
	return m.err
}

func (m *mockContentEngine) Detect(_ context.Context) error {
	m.detected++
	return m.err
}

func (m *mockContentEngine) UpdateModuleContent(_ context.Context, _ string) (domain.Process, <-chan error) {
	ch := make(chan error, 1)
	ch <- m.err
	close(ch)
	return domain.Process{ID: "p", Kind: domain.ProcessSync}, ch
}

func (m *mockContentEngine) FindModules(_ context.Context) (domain.Process, <-chan error) {
	ch := make(chan error, 1)
	ch <- m.err
	close(ch)
	return domain.Process{ID: "p", Kind: domain.ProcessDetect}, ch
}

// mockMemberService is a mock implementation of driving.MemberService.
type mockMemberService struct {
	root     *domain.RootMember
	sections map[int]*domain.SectionItem
	opts     domain.ArchitectureOptions
	err      error
}

func (m *mockMemberService) SelectSectionItems(_ context.Context, _ string) (map[int]*domain.SectionItem, error) {
	return m.sections, m.err
}

func (m *mockMemberService) CreateMembers(_ context.Context, _ string, opts domain.ArchitectureOptions) (*domain.RootMember, error) {
	m.opts = opts
	return m.root, m.err
}

func (m *mockMemberService) SelectMembers(_ context.Context, _ string) (*domain.RootMember, error) {
	return m.root, m.err
}

func (m *mockMemberService) ApplyAction(_ context.Context, _ int64, _ domain.ArchitectureType, _ domain.MemberAction) (string, error) {
	return "", m.err
}

func (m *mockMemberService) EditSource(_ context.Context, _ domain.SourceEdit) error {
	return m.err
}

func (m *mockMemberService) EditResource(_ context.Context, _ domain.ResourceEdit) error {
	return m.err
}

// mockResourceController is a mock implementation of driving.ResourceController.
type mockResourceController struct {
	reset []string
	err   error
}

func (m *mockResourceController) OnStart(_ context.Context, _ string) error { return m.err }

func (m *mockResourceController) OnModuleLoad(_ context.Context, _ *domain.Module) error {
	return m.err
}

func (m *mockResourceController) ReloadModule(_ context.Context, _ *domain.Module) error {
	return m.err
}

func (m *mockResourceController) CreateReqContext(
	_ context.Context, _ *domain.ResourceInfo, _ *domain.Source, _ *domain.Module, _ bool,
) (*rules.Context, error) {
	return nil, m.err
}

func (m *mockResourceController) GetTags(
	_ context.Context, _ *domain.ResourceInfo, _ *domain.Source, _ *domain.Module, _, _ bool,
) (map[string]string, error) {
	return nil, m.err
}

func (m *mockResourceController) GetSubPath(
	_ context.Context, _ *domain.ResourceInfo, _ *domain.Source, _ *domain.Module,
) (string, error) {
	return "", m.err
}

func (m *mockResourceController) LoadStructureComplete(_ context.Context, _ *domain.Module) ([]domain.StructureInfo, error) {
	return nil, m.err
}

func (m *mockResourceController) ResetTags(_ context.Context, module string) error {
	m.reset = append(m.reset, module)
	return m.err
}

// mockDownloadService is a mock implementation of driving.DownloadService.
type mockDownloadService struct {
	requested []int64
	checked   []bool
	results   []domain.DownloadResult
	err       error
}

func (m *mockDownloadService) RequestDownload(_ context.Context, sourceID int64, check bool) error {
	m.requested = append(m.requested, sourceID)
	m.checked = append(m.checked, check)
	return m.err
}

func (m *mockDownloadService) Wait(_ context.Context) error { return nil }

func (m *mockDownloadService) Results() []domain.DownloadResult { return m.results }

func (m *mockDownloadService) GetPath(_ context.Context, _ int64) (string, error) {
	return "", m.err
}

func (m *mockDownloadService) FileExists(_ context.Context, _ int64, _, _ bool) (string, error) {
	return "", m.err
}

func (m *mockDownloadService) DeleteFile(_ context.Context, _ int64) (bool, error) {
	return false, m.err
}

// testTree is a structure tree with two files.
func testTree() *domain.RootMember {
	return &domain.RootMember{
		Member: domain.Member{Title: ".", Children: []*domain.Member{{
			Title: "Vorlesung",
			Children: []*domain.Member{
				{Title: "VL01.pdf", Details: &domain.MemberDetail{
					SourceID: 2, Title: "VL01.pdf", Type: domain.LinkResource, MainAction: domain.ActionFileOpen,
					Resource: &domain.MemberResource{ID: 2, Downloaded: true, FileType: domain.ResourcePDF},
					Tags:     map[string]string{"kind": "document"},
				}},
				{Title: "VL02.pdf", Details: &domain.MemberDetail{
					SourceID: 3, Title: "VL02.pdf", Type: domain.LinkResource, MainAction: domain.ActionFileDownload,
				}},
			},
		}}},
		Lexicon: map[int64]string{3: "Vorlesung/VL02.pdf", 2: "Vorlesung/VL01.pdf"},
	}
}
