package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.SourceStore   = (*SourceStore)(nil)
	_ driven.ResourceStore = (*ResourceStore)(nil)
	_ driven.TagStore      = (*TagStore)(nil)
)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	nextID  int64
	sources map[int64]domain.Source
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{sources: make(map[int64]domain.Source)}
}

// Put stores a source, assigning an ID when it has none, and returns the ID.
func (s *SourceStore) Put(source domain.Source) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if source.ID == 0 {
		s.nextID++
		source.ID = s.nextID
	} else if source.ID > s.nextID {
		s.nextID = source.ID
	}
	s.sources[source.ID] = source
	return source.ID
}

// Get retrieves a source by ID.
func (s *SourceStore) Get(_ context.Context, id int64) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// GetMany retrieves the sources with the given IDs.
func (s *SourceStore) GetMany(_ context.Context, ids []int64) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		if source, ok := s.sources[id]; ok {
			result = append(result, source)
		}
	}
	return result, nil
}

// ListByModule returns all sources of a module ordered by ID.
func (s *SourceStore) ListByModule(_ context.Context, module string) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Source, 0)
	for _, source := range s.sources {
		if source.Module == module {
			result = append(result, source)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Edit applies a manual edit.
func (s *SourceStore) Edit(_ context.Context, edit domain.SourceEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	source, ok := s.sources[edit.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if edit.Visible != nil {
		source.Visible = *edit.Visible
	}
	s.sources[edit.ID] = source
	return nil
}

func (s *SourceStore) moduleOf(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	return source.Module, ok
}

// ResourceStore is an in-memory implementation of driven.ResourceStore.
type ResourceStore struct {
	sources *SourceStore

	mu        sync.RWMutex
	nextID    int64
	resources map[int64]domain.ResourceInfo // by source ID
}

// NewResourceStore creates a resource store joined against sources.
func NewResourceStore(sources *SourceStore) *ResourceStore {
	return &ResourceStore{sources: sources, resources: make(map[int64]domain.ResourceInfo)}
}

// Put stores a resource keyed by its source ID.
func (s *ResourceStore) Put(resource domain.ResourceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resource.ID == 0 {
		s.nextID++
		resource.ID = s.nextID
	}
	s.resources[resource.SourceID] = resource
}

// GetBySource retrieves the resource of a source.
func (s *ResourceStore) GetBySource(_ context.Context, sourceID int64) (*domain.ResourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resource, ok := s.resources[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &resource, nil
}

// ListByModule returns the module's resources joined with their sources.
func (s *ResourceStore) ListByModule(ctx context.Context, module string) ([]domain.SourceResource, error) {
	sources, err := s.sources.ListByModule(ctx, module)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SourceResource, 0)
	for _, source := range sources {
		if source.Type != domain.LinkResource {
			continue
		}
		if resource, ok := s.resources[source.ID]; ok {
			result = append(result, domain.SourceResource{Source: source, Resource: resource})
		}
	}
	return result, nil
}

// Edit applies a change to a resource.
func (s *ResourceStore) Edit(_ context.Context, edit domain.ResourceEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resource, ok := s.resources[edit.SourceID]
	if !ok {
		return domain.ErrNotFound
	}
	switch {
	case edit.Marked != nil:
		resource.Marked = *edit.Marked
	case edit.Location != nil && *edit.Location != "":
		loc := *edit.Location
		resource.Location = &loc
		resource.Downloaded = true
	case edit.Downloaded != nil:
		resource.Downloaded = *edit.Downloaded
		resource.Location = nil
	}
	s.resources[edit.SourceID] = resource
	return nil
}

// TagStore is an in-memory implementation of driven.TagStore.
type TagStore struct {
	sources *SourceStore

	mu   sync.RWMutex
	tags map[int64]map[string]domain.TagData
}

// NewTagStore creates a tag store resolving modules through sources.
func NewTagStore(sources *SourceStore) *TagStore {
	return &TagStore{sources: sources, tags: make(map[int64]map[string]domain.TagData)}
}

// ListBySource returns the cached tags of a source ordered by tag name.
func (s *TagStore) ListBySource(_ context.Context, sourceID int64) ([]domain.TagData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.TagData, 0, len(s.tags[sourceID]))
	for _, tag := range s.tags[sourceID] {
		result = append(result, tag)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Tag < result[j].Tag })
	return result, nil
}

// Upsert stores tags, replacing existing values.
func (s *TagStore) Upsert(_ context.Context, tags []domain.TagData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		if s.tags[tag.Source] == nil {
			s.tags[tag.Source] = make(map[string]domain.TagData)
		}
		s.tags[tag.Source][tag.Tag] = tag
	}
	return nil
}

// DeleteByModule removes the cached tags of a module.
func (s *TagStore) DeleteByModule(_ context.Context, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sourceID := range s.tags {
		if m, ok := s.sources.moduleOf(sourceID); ok && m == module {
			delete(s.tags, sourceID)
		}
	}
	return nil
}
