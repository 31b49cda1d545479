package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
	"github.com/Schneison/unima/internal/rules"
)

// Ensure ResourceController implements the interface.
var _ driving.ResourceController = (*ResourceController)(nil)

// structureWorkers bounds concurrent tag and path computations.
const structureWorkers = 8

// ResourceController classifies resources, caches their tags and derives
// their directories from the rule registry.
type ResourceController struct {
	registry   *rules.Registry
	watcher    *rules.Watcher
	storageDir string

	sources   driven.SourceStore
	resources driven.ResourceStore
	tags      driven.TagStore
	modules   driven.ModuleStore
}

// NewResourceController creates a controller over the given stores.
// storageDir is the root of downloaded files; module rules live below
// <storageDir>/<vessel>/<module>/config.
func NewResourceController(
	registry *rules.Registry,
	storageDir string,
	sources driven.SourceStore,
	resources driven.ResourceStore,
	tags driven.TagStore,
	modules driven.ModuleStore,
) *ResourceController {
	return &ResourceController{
		registry:   registry,
		storageDir: storageDir,
		sources:    sources,
		resources:  resources,
		tags:       tags,
		modules:    modules,
	}
}

// SetWatcher makes OnModuleLoad watch the rule files of loaded modules.
func (c *ResourceController) SetWatcher(w *rules.Watcher) {
	c.watcher = w
}

// Registry returns the rule registry.
func (c *ResourceController) Registry() *rules.Registry {
	return c.registry
}

// OnStart loads the global tag definitions and structures below root.
func (c *ResourceController) OnStart(_ context.Context, root string) error {
	return c.registry.LoadGlobal(root)
}

// OnModuleLoad loads the rules of a module once.
func (c *ResourceController) OnModuleLoad(ctx context.Context, module *domain.Module) error {
	if c.registry.IsLoaded(module.ID) {
		return nil
	}
	modulePath, err := ModulePath(ctx, c.modules, c.storageDir, module)
	if err != nil {
		return err
	}
	if err := c.registry.LoadModule(module.ID, modulePath); err != nil {
		return err
	}
	if c.watcher != nil {
		if err := c.watcher.Watch(module.ID, modulePath); err != nil {
			logger.Warn("Not watching rules of module %s: %v", module.ID, err)
		}
	}
	return nil
}

// ReloadModule reloads the rules of a module and drops its cached tags.
func (c *ResourceController) ReloadModule(ctx context.Context, module *domain.Module) error {
	modulePath, err := ModulePath(ctx, c.modules, c.storageDir, module)
	if err != nil {
		return err
	}
	if err := c.registry.ReloadModule(module.ID, modulePath); err != nil {
		return err
	}
	return c.ResetTags(ctx, module.ID)
}

// CreateReqContext builds the evaluation context of a source.
func (c *ResourceController) CreateReqContext(
	ctx context.Context,
	resource *domain.ResourceInfo,
	source *domain.Source,
	module *domain.Module,
	requestTags bool,
) (*rules.Context, error) {
	reqCtx := rules.NewContext(source.Module)
	if resource != nil {
		reqCtx.FileName = resource.FileName
	}
	reqCtx.SectionName = domain.MissingSectionName
	if source.Section != nil {
		reqCtx.Section = source.Section.SectionIndex
		reqCtx.SectionName = module.SectionName(source.Section.SectionIndex)
	}
	if source.Time != nil {
		created, modified := source.Time.Created, source.Time.Modified
		reqCtx.TimeCreation = &created
		reqCtx.TimeModification = &modified
	}
	if requestTags {
		tags, err := c.GetTags(ctx, resource, source, module, false, true)
		if err != nil {
			return nil, err
		}
		reqCtx.Tags = tags
	}
	return reqCtx, nil
}

// GetTags returns the cached tags of a source, classifying it when none
// are cached or forceReload is set. Classified tags are persisted only when
// cache is set.
func (c *ResourceController) GetTags(
	ctx context.Context,
	resource *domain.ResourceInfo,
	source *domain.Source,
	module *domain.Module,
	forceReload, cache bool,
) (map[string]string, error) {
	if !forceReload {
		cached, err := c.tags.ListBySource(ctx, source.ID)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		if len(cached) > 0 {
			tags := make(map[string]string, len(cached))
			for _, t := range cached {
				tags[t.Tag] = t.Value
			}
			return tags, nil
		}
	}
	return c.onSourceLoad(ctx, resource, source, module, cache)
}

// onSourceLoad classifies a source and, with cache set, stores the result.
// Tags of a failed classification are never stored.
func (c *ResourceController) onSourceLoad(
	ctx context.Context,
	resource *domain.ResourceInfo,
	source *domain.Source,
	module *domain.Module,
	cache bool,
) (map[string]string, error) {
	reqCtx, err := c.CreateReqContext(ctx, resource, source, module, false)
	if err != nil {
		return nil, err
	}
	if err := c.registry.ApplyClassifications(reqCtx, rules.NewSession()); err != nil {
		return nil, fmt.Errorf("classify source %d: %w", source.ID, err)
	}
	if !cache || len(reqCtx.Tags) == 0 {
		return reqCtx.Tags, nil
	}

	names := make([]string, 0, len(reqCtx.Tags))
	for name := range reqCtx.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	data := make([]domain.TagData, 0, len(names))
	for _, name := range names {
		data = append(data, domain.TagData{
			Source:  source.ID,
			Tag:     name,
			Value:   reqCtx.Tags[name],
			DefPath: reqCtx.Classification[name],
		})
	}
	if err := c.tags.Upsert(ctx, data); err != nil {
		logger.Warn("Caching tags of source %d: %v", source.ID, err)
	}
	return reqCtx.Tags, nil
}

// GetSubPath returns the directory of a source relative to its module,
// prefixed by the directories of its parents.
func (c *ResourceController) GetSubPath(
	ctx context.Context,
	resource *domain.ResourceInfo,
	source *domain.Source,
	module *domain.Module,
) (string, error) {
	return c.subPath(ctx, resource, source, module, map[int64]bool{})
}

func (c *ResourceController) subPath(
	ctx context.Context,
	resource *domain.ResourceInfo,
	source *domain.Source,
	module *domain.Module,
	visited map[int64]bool,
) (string, error) {
	if visited[source.ID] {
		return "", fmt.Errorf("source %d: %w", source.ID, domain.ErrParentCycle)
	}
	visited[source.ID] = true

	parentPath := ""
	if source.Parent != nil {
		parent, err := c.sources.Get(ctx, *source.Parent)
		if err != nil {
			return "", fmt.Errorf("parent of source %d: %w", source.ID, err)
		}
		parentPath, err = c.subPath(ctx, nil, parent, module, visited)
		if err != nil {
			return "", err
		}
	}

	reqCtx, err := c.CreateReqContext(ctx, resource, source, module, true)
	if err != nil {
		return "", err
	}
	own, err := c.registry.CreatePath(reqCtx, rules.NewSession(), module.ID)
	if err != nil {
		return "", fmt.Errorf("path of source %d: %w", source.ID, err)
	}
	return rules.JoinPath(parentPath, own), nil
}

// LoadStructureComplete returns every resource of the module with its tags
// and path. Failures degrade a single item instead of the batch.
func (c *ResourceController) LoadStructureComplete(ctx context.Context, module *domain.Module) ([]domain.StructureInfo, error) {
	pairs, err := c.resources.ListByModule(ctx, module.ID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	result := make([]domain.StructureInfo, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(structureWorkers)
	for i := range pairs {
		g.Go(func() error {
			source, resource := pairs[i].Source, pairs[i].Resource
			tags, err := c.GetTags(gctx, &resource, &source, module, false, true)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Warn("Tags of %s: %v", source.Title, err)
				tags = map[string]string{}
			}
			pathName, err := c.GetSubPath(gctx, &resource, &source, module)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Warn("Path of %s: %v", source.Title, err)
				pathName = ""
			}
			result[i] = domain.StructureInfo{Source: source, Resource: resource, Tags: tags, PathName: pathName}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ResetTags drops the cached tags of a module.
func (c *ResourceController) ResetTags(ctx context.Context, module string) error {
	if err := c.tags.DeleteByModule(ctx, module); err != nil {
		return fmt.Errorf("reset tags of %s: %w", module, err)
	}
	return nil
}

// ModulePath returns <storageDir>/<vessel dir>/<module dir>. A module
// without a known vessel sits directly below storageDir.
func ModulePath(ctx context.Context, modules driven.ModuleStore, storageDir string, module *domain.Module) (string, error) {
	vesselDir := ""
	if module.Vessel != "" {
		vessel, err := modules.GetVessel(ctx, module.Vessel)
		switch {
		case err == nil:
			vesselDir = vessel.Directory
		case errors.Is(err, domain.ErrNotFound):
		default:
			return "", fmt.Errorf("vessel of module %s: %w", module.ID, err)
		}
	}
	return filepath.Join(storageDir, vesselDir, module.Directory), nil
}
