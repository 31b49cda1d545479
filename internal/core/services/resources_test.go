package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/adapters/driven/storage/memory"
	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/rules"
)

func writeRuleFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

type resourceFixture struct {
	controller *ResourceController
	sources    *memory.SourceStore
	resources  *memory.ResourceStore
	tags       *memory.TagStore
	modules    *memory.ModuleStore
	module     *domain.Module
	storageDir string
}

// newResourceFixture builds module "algo" in vessel "ss22" with a folder
// (section "Vorlesung") holding VL01.pdf.
func newResourceFixture(t *testing.T) *resourceFixture {
	t.Helper()
	storageDir := t.TempDir()
	modulePath := filepath.Join(storageDir, "SoSe22", "Algo")

	writeRuleFile(t, filepath.Join(modulePath, "config", "classification", "kind.json"),
		`{"name": "kind", "criteria": {"type": "name_end", "value": ".pdf"},
		  "action": {"type": "tag", "tag": "kind", "value": "document"}}`)
	writeRuleFile(t, filepath.Join(modulePath, "config", "structures", "paths.json"), `[
		{"criteria": {"type": "section", "start": 1, "end": 9},
		 "providers": [{"type": "section", "variant": "name"}],
		 "path": [{"provider": 0}]},
		{"criteria": {"type": "tag_has", "tag": "kind"},
		 "providers": [{"type": "tag", "tag": "kind"}],
		 "path": [{"provider": 0}], "rank": {"weight": 1}}
	]`)

	modules := memory.NewModuleStore()
	require.NoError(t, modules.SaveVessel(context.Background(),
		domain.ModuleVessel{ID: "ss22", Title: "SoSe 2022", Directory: "SoSe22"}))
	module := domain.Module{
		ID:            "algo",
		Title:         "Algorithmen",
		Directory:     "Algo",
		InternalID:    589,
		Vessel:        "ss22",
		SectionTitles: []domain.SectionTitle{{Title: "Allgemein", Index: 0}, {Title: "Vorlesung", Index: 1}},
	}
	require.NoError(t, modules.Save(context.Background(), module))

	sources := memory.NewSourceStore()
	resources := memory.NewResourceStore(sources)
	tags := memory.NewTagStore(sources)

	folderID := sources.Put(domain.Source{
		URL: "https://m/mod/folder/view.php?id=10", Module: "algo", Title: "Folien",
		Type: domain.LinkResource, Visible: true, Section: &domain.SectionData{SectionIndex: 1},
	})
	fileID := sources.Put(domain.Source{
		URL: "https://m/pluginfile.php/1/VL01.pdf", Module: "algo", Title: "VL01.pdf",
		Type: domain.LinkResource, Visible: true, Parent: &folderID,
		Time: &domain.TimeData{Created: 1650000000, Modified: 1650003600},
	})
	resources.Put(domain.ResourceInfo{SourceID: fileID, Type: domain.ResourcePDF, FileName: "VL01.pdf", Marked: true})

	controller := NewResourceController(rules.NewRegistry(), storageDir, sources, resources, tags, modules)
	require.NoError(t, controller.OnModuleLoad(context.Background(), &module))

	return &resourceFixture{
		controller: controller,
		sources:    sources,
		resources:  resources,
		tags:       tags,
		modules:    modules,
		module:     &module,
		storageDir: storageDir,
	}
}

func TestModulePath(t *testing.T) {
	ctx := context.Background()
	modules := memory.NewModuleStore()
	require.NoError(t, modules.SaveVessel(ctx, domain.ModuleVessel{ID: "ss22", Directory: "SoSe22"}))

	path, err := ModulePath(ctx, modules, "/data", &domain.Module{Directory: "Algo", Vessel: "ss22"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "SoSe22", "Algo"), path)

	path, err = ModulePath(ctx, modules, "/data", &domain.Module{Directory: "Algo", Vessel: "gone"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "Algo"), path)
}

func TestResourceController_CreateReqContext(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, err := f.sources.Get(ctx, 2)
	require.NoError(t, err)
	resource, err := f.resources.GetBySource(ctx, 2)
	require.NoError(t, err)

	reqCtx, err := f.controller.CreateReqContext(ctx, resource, file, f.module, false)

	require.NoError(t, err)
	assert.Equal(t, "algo", reqCtx.Module)
	assert.Equal(t, "VL01.pdf", reqCtx.FileName)
	assert.Equal(t, rules.NoSection, reqCtx.Section)
	assert.Equal(t, domain.MissingSectionName, reqCtx.SectionName)
	require.NotNil(t, reqCtx.TimeCreation)
	assert.Equal(t, int64(1650000000), *reqCtx.TimeCreation)
	assert.Equal(t, int64(1650003600), *reqCtx.TimeModification)
	assert.Empty(t, reqCtx.Tags)

	folder, err := f.sources.Get(ctx, 1)
	require.NoError(t, err)
	reqCtx, err = f.controller.CreateReqContext(ctx, nil, folder, f.module, true)

	require.NoError(t, err)
	assert.Equal(t, "", reqCtx.FileName)
	assert.Equal(t, 1, reqCtx.Section)
	assert.Equal(t, "Vorlesung", reqCtx.SectionName)
	assert.Nil(t, reqCtx.TimeCreation)
}

func TestResourceController_GetTagsCaches(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, _ := f.sources.Get(ctx, 2)
	resource, _ := f.resources.GetBySource(ctx, 2)

	tags, err := f.controller.GetTags(ctx, resource, file, f.module, false, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kind": "document"}, tags)

	cached, err := f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, domain.TagData{Source: 2, Tag: "kind", Value: "document", DefPath: "kind"}, cached[0])

	// A cached value wins until a reload is forced.
	require.NoError(t, f.tags.Upsert(ctx, []domain.TagData{{Source: 2, Tag: "kind", Value: "stale", DefPath: "kind"}}))
	tags, err = f.controller.GetTags(ctx, resource, file, f.module, false, true)
	require.NoError(t, err)
	assert.Equal(t, "stale", tags["kind"])

	tags, err = f.controller.GetTags(ctx, resource, file, f.module, true, true)
	require.NoError(t, err)
	assert.Equal(t, "document", tags["kind"])
}

func TestResourceController_GetTagsWithoutCache(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, _ := f.sources.Get(ctx, 2)
	resource, _ := f.resources.GetBySource(ctx, 2)

	tags, err := f.controller.GetTags(ctx, resource, file, f.module, false, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kind": "document"}, tags)

	cached, err := f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, cached)

	// A forced reload without cache leaves stored tags untouched.
	require.NoError(t, f.tags.Upsert(ctx, []domain.TagData{{Source: 2, Tag: "kind", Value: "stale", DefPath: "kind"}}))
	tags, err = f.controller.GetTags(ctx, resource, file, f.module, true, false)
	require.NoError(t, err)
	assert.Equal(t, "document", tags["kind"])

	cached, err = f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "stale", cached[0].Value)
}

func TestResourceController_GetSubPath(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, _ := f.sources.Get(ctx, 2)
	resource, _ := f.resources.GetBySource(ctx, 2)

	path, err := f.controller.GetSubPath(ctx, resource, file, f.module)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Vorlesung", "document"), path)
}

func TestResourceController_GetSubPathParentCycle(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	first, second := int64(10), int64(11)
	f.sources.Put(domain.Source{ID: first, URL: "a", Module: "algo", Type: domain.LinkResource, Parent: &second})
	f.sources.Put(domain.Source{ID: second, URL: "b", Module: "algo", Type: domain.LinkResource, Parent: &first})
	source, _ := f.sources.Get(ctx, first)

	_, err := f.controller.GetSubPath(ctx, nil, source, f.module)

	assert.ErrorIs(t, err, domain.ErrParentCycle)
}

func TestResourceController_LoadStructureComplete(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	orphanParent := int64(99)
	orphanID := f.sources.Put(domain.Source{
		URL: "https://m/pluginfile.php/1/orphan.txt", Module: "algo", Title: "orphan.txt",
		Type: domain.LinkResource, Parent: &orphanParent,
	})
	f.resources.Put(domain.ResourceInfo{SourceID: orphanID, Type: domain.ResourceText, FileName: "orphan.txt"})

	items, err := f.controller.LoadStructureComplete(ctx, f.module)

	require.NoError(t, err)
	require.Len(t, items, 2)
	byTitle := map[string]domain.StructureInfo{}
	for _, item := range items {
		byTitle[item.Source.Title] = item
	}
	assert.Equal(t, filepath.Join("Vorlesung", "document"), byTitle["VL01.pdf"].PathName)
	assert.Equal(t, "document", byTitle["VL01.pdf"].Tags["kind"])
	assert.Equal(t, "", byTitle["orphan.txt"].PathName, "a missing parent degrades the path")
	assert.Empty(t, byTitle["orphan.txt"].Tags)
}

func TestResourceController_ClassificationErrorIsNotCached(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	modulePath := filepath.Join(f.storageDir, "SoSe22", "Algo")
	writeRuleFile(t, filepath.Join(modulePath, "config", "classification", "broken.json"),
		`{"name": "broken", "action": {"type": "rename"}}`)
	require.NoError(t, f.controller.ReloadModule(ctx, f.module))
	file, _ := f.sources.Get(ctx, 2)
	resource, _ := f.resources.GetBySource(ctx, 2)

	_, err := f.controller.GetTags(ctx, resource, file, f.module, false, true)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	cached, err := f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, cached)

	items, err := f.controller.LoadStructureComplete(ctx, f.module)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Tags)
}

func TestResourceController_ReloadModuleResetsTags(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, _ := f.sources.Get(ctx, 2)
	resource, _ := f.resources.GetBySource(ctx, 2)
	_, err := f.controller.GetTags(ctx, resource, file, f.module, false, true)
	require.NoError(t, err)

	modulePath := filepath.Join(f.storageDir, "SoSe22", "Algo")
	writeRuleFile(t, filepath.Join(modulePath, "config", "classification", "kind.json"),
		`{"name": "kind", "action": {"type": "tag", "tag": "kind", "value": "slides"}}`)
	require.NoError(t, f.controller.ReloadModule(ctx, f.module))

	cached, err := f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, cached)

	tags, err := f.controller.GetTags(ctx, resource, file, f.module, false, true)
	require.NoError(t, err)
	assert.Equal(t, "slides", tags["kind"])
}

func TestResourceController_ResetTags(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tags.Upsert(ctx, []domain.TagData{{Source: 2, Tag: "kind", Value: "x"}}))

	require.NoError(t, f.controller.ResetTags(ctx, "algo"))

	cached, err := f.tags.ListBySource(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, cached)
}
