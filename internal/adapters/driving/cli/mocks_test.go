package cli

import (
	"bytes"
	"context"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/rules"
)

// mockContentEngine implements driving.ContentEngine for testing.
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

func (m *mockContentEngine) UpdateModuleContent(ctx context.Context, moduleID string) (domain.Process, <-chan error) {
	ch := make(chan error, 1)
	ch <- m.Sync(ctx, moduleID)
	close(ch)
	return domain.Process{ID: "sync-1", Kind: domain.ProcessSync}, ch
}

func (m *mockContentEngine) FindModules(ctx context.Context) (domain.Process, <-chan error) {
	ch := make(chan error, 1)
	ch <- m.Detect(ctx)
	close(ch)
	return domain.Process{ID: "detect-1", Kind: domain.ProcessDetect}, ch
}

// mockMemberService implements driving.MemberService for testing.
type mockMemberService struct {
	root     *domain.RootMember
	sections map[int]*domain.SectionItem
	opts     domain.ArchitectureOptions
	result   string
	actions  []domain.MemberAction
	sources  []domain.SourceEdit
	edits    []domain.ResourceEdit
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

func (m *mockMemberService) ApplyAction(_ context.Context, _ int64, _ domain.ArchitectureType, action domain.MemberAction) (string, error) {
	m.actions = append(m.actions, action)
	return m.result, m.err
}

func (m *mockMemberService) EditSource(_ context.Context, edit domain.SourceEdit) error {
	m.sources = append(m.sources, edit)
	return m.err
}

func (m *mockMemberService) EditResource(_ context.Context, edit domain.ResourceEdit) error {
	m.edits = append(m.edits, edit)
	return m.err
}

// mockResourceController implements driving.ResourceController for testing.
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

// mockDownloadService implements driving.DownloadService for testing.
type mockDownloadService struct {
	requested []int64
	checked   []bool
	results   []domain.DownloadResult
	path      string
	removed   bool
	err       error
}

func (m *mockDownloadService) RequestDownload(_ context.Context, sourceID int64, check bool) error {
	m.requested = append(m.requested, sourceID)
	m.checked = append(m.checked, check)
	return m.err
}

func (m *mockDownloadService) Wait(_ context.Context) error { return nil }

func (m *mockDownloadService) Results() []domain.DownloadResult {
	results := m.results
	m.results = nil
	return results
}

func (m *mockDownloadService) GetPath(_ context.Context, _ int64) (string, error) {
	return m.path, m.err
}

func (m *mockDownloadService) FileExists(_ context.Context, _ int64, _, _ bool) (string, error) {
	return m.path, m.err
}

func (m *mockDownloadService) DeleteFile(_ context.Context, _ int64) (bool, error) {
	return m.removed, m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	token       string
	cookie      string
	validateErr error
	err         error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	if m.err != nil {
		return m.err
	}
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetCredentials(token, cookie string) error {
	m.token, m.cookie = token, cookie
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

type testServices struct {
	content    *mockContentEngine
	members    *mockMemberService
	controller *mockResourceController
	downloads  *mockDownloadService
	settings   *mockSettingsService
}

// setupTestServices installs mocks for every service and returns a cleanup
// restoring the previous ones.
func setupTestServices() (*testServices, func()) {
	old := Services{
		Settings:   settingsService,
		Content:    contentEngine,
		Controller: resourceController,
		Downloads:  downloadService,
		Members:    memberService,
		Scheduler:  newScheduler,
	}
	ts := &testServices{
		content:    &mockContentEngine{},
		members:    &mockMemberService{root: &domain.RootMember{}},
		controller: &mockResourceController{},
		downloads:  &mockDownloadService{},
		settings:   &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
	SetServices(Services{
		Settings:   ts.settings,
		Content:    ts.content,
		Controller: ts.controller,
		Downloads:  ts.downloads,
		Members:    ts.members,
	})
	return ts, func() { SetServices(old) }
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// testTree is a structure tree with two files.
func testTree() *domain.RootMember {
	return &domain.RootMember{
		Member: domain.Member{Title: ".", Children: []*domain.Member{{
			Title: "Vorlesung",
			Children: []*domain.Member{
				{Title: "VL01.pdf", Details: &domain.MemberDetail{
					SourceID: 2, Title: "VL01.pdf", Visible: true, Type: domain.LinkResource, MainAction: domain.ActionFileOpen,
					Resource: &domain.MemberResource{ID: 2, Downloaded: true, FileType: domain.ResourcePDF},
					Tags:     map[string]string{"kind": "document", "nr": "1"},
				}},
				{Title: "VL02.pdf", Details: &domain.MemberDetail{
					SourceID: 3, Title: "VL02.pdf", Type: domain.LinkResource, MainAction: domain.ActionFileDownload,
				}},
			},
		}}},
		Lexicon: map[int64]string{3: "Vorlesung/VL02.pdf", 2: "Vorlesung/VL01.pdf"},
	}
}
