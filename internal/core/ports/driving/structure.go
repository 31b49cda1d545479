package driving

import (
	"context"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/rules"
)

// ResourceController classifies resources and derives their paths.
type ResourceController interface {
	// OnStart loads the global tag definitions and structures below root.
	OnStart(ctx context.Context, root string) error

	// OnModuleLoad loads the rules of a module once.
	OnModuleLoad(ctx context.Context, module *domain.Module) error

	// ReloadModule reloads the rules of a module and drops its cached tags.
	ReloadModule(ctx context.Context, module *domain.Module) error

	// CreateReqContext builds the evaluation context of a source.
	// Cached tags are loaded (or computed) when requestTags is set.
	CreateReqContext(ctx context.Context, resource *domain.ResourceInfo, source *domain.Source, module *domain.Module, requestTags bool) (*rules.Context, error)

	// GetTags returns the tags of a source, computing them when none are
	// cached or forceReload is set. Computed tags are stored only if cache is set.
	GetTags(ctx context.Context, resource *domain.ResourceInfo, source *domain.Source, module *domain.Module, forceReload, cache bool) (map[string]string, error)

	// GetSubPath returns the relative directory of a source, prefixed by
	// the directories of its parents.
	GetSubPath(ctx context.Context, resource *domain.ResourceInfo, source *domain.Source, module *domain.Module) (string, error)

	// LoadStructureComplete returns every resource of the module with its
	// tags and path. A failing path degrades to "".
	LoadStructureComplete(ctx context.Context, module *domain.Module) ([]domain.StructureInfo, error)

	// ResetTags drops the cached tags of a module.
	ResetTags(ctx context.Context, module string) error
}
