package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Schneison/unima/internal/logger"
)

// Rule directories, relative to the root or a module directory.
const (
	ConfigDir         = "config"
	TagsDir           = "tags"
	StructuresDir     = "structures"
	ClassificationDir = "classification"
)

// Registry owns the loaded rules: global tag definitions and structures,
// and per-module classifications and structures. Modules are loaded once;
// Reload replaces a module's rules explicitly.
type Registry struct {
	mu sync.RWMutex

	tags       map[string]TagDefinition
	structures []Structure

	moduleStructures map[string][]Structure
	classifications  map[string][]Classification
	loaded           map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tags:             make(map[string]TagDefinition),
		moduleStructures: make(map[string][]Structure),
		classifications:  make(map[string][]Classification),
		loaded:           make(map[string]bool),
	}
}

// LoadGlobal loads tag definitions and global structures from
// <root>/config. Nothing is replaced if any document fails.
func (r *Registry) LoadGlobal(root string) error {
	base := filepath.Join(root, ConfigDir)
	tags, tagErr := LoadFolder[TagDefinition](KindTag, filepath.Join(base, TagsDir))
	structures, structErr := LoadFolder[Structure](KindStructure, filepath.Join(base, StructuresDir))
	if err := errors.Join(tagErr, structErr); err != nil {
		return fmt.Errorf("load global rules: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = make(map[string]TagDefinition, len(tags))
	for _, t := range tags {
		r.tags[t.Name] = t
	}
	r.structures = structures
	logger.Debug("Loaded %d tag definitions and %d global structures from %s", len(tags), len(structures), base)
	return nil
}

// LoadModule loads the module's rules from <modulePath>/config unless they
// are already loaded.
func (r *Registry) LoadModule(module, modulePath string) error {
	if r.IsLoaded(module) {
		return nil
	}
	return r.ReloadModule(module, modulePath)
}

// ReloadModule loads the module's rules, replacing any previous ones.
// The previous rules stay active if loading fails.
func (r *Registry) ReloadModule(module, modulePath string) error {
	base := filepath.Join(modulePath, ConfigDir)
	classifications, classErr := LoadFolder[Classification](KindClassification, filepath.Join(base, ClassificationDir))
	structures, structErr := LoadFolder[Structure](KindStructure, filepath.Join(base, StructuresDir))
	if err := errors.Join(classErr, structErr); err != nil {
		return fmt.Errorf("load rules of module %s: %w", module, err)
	}

	r.SetModule(module, classifications, structures)
	logger.Debug("Loaded %d classifications and %d structures for module %s", len(classifications), len(structures), module)
	return nil
}

// SetModule installs rules for a module directly and marks it loaded.
func (r *Registry) SetModule(module string, classifications []Classification, structures []Structure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifications[module] = classifications
	r.moduleStructures[module] = structures
	r.loaded[module] = true
}

// SetGlobal installs global rules directly.
func (r *Registry) SetGlobal(tags []TagDefinition, structures []Structure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = make(map[string]TagDefinition, len(tags))
	for _, t := range tags {
		r.tags[t.Name] = t
	}
	r.structures = structures
}

// IsLoaded reports whether the module's rules are loaded.
func (r *Registry) IsLoaded(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[module]
}

// Classifications returns the module's classifications.
func (r *Registry) Classifications(module string) []Classification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classifications[module]
}

// Structures returns the global structures followed by the module's.
func (r *Registry) Structures(module string) []Structure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Structure, 0, len(r.structures)+len(r.moduleStructures[module]))
	out = append(out, r.structures...)
	return append(out, r.moduleStructures[module]...)
}

// TagNames lists the defined tags in name order.
func (r *Registry) TagNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TagItems returns the admissible items of a tag.
func (r *Registry) TagItems(name string) ([]string, bool) {
	r.mu.RLock()
	def, ok := r.tags[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return def.Items(), true
}

// ApplyClassifications classifies ctx with the rules of ctx.Module.
func (r *Registry) ApplyClassifications(ctx *Context, session *Session) error {
	return ApplyClassifications(r.Classifications(ctx.Module), ctx, session)
}

// CreatePath computes the path fragment of ctx with the global and module
// structures.
func (r *Registry) CreatePath(ctx *Context, session *Session, module string) (string, error) {
	return CreatePath(r.Structures(module), ctx, session)
}
