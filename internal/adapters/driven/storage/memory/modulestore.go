package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// Ensure ModuleStore implements the interface.
var _ driven.ModuleStore = (*ModuleStore)(nil)

// ModuleStore is an in-memory implementation of driven.ModuleStore.
type ModuleStore struct {
	mu      sync.RWMutex
	modules map[string]domain.Module
	vessels map[string]domain.ModuleVessel
}

// NewModuleStore creates a new in-memory module store.
func NewModuleStore() *ModuleStore {
	return &ModuleStore{
		modules: make(map[string]domain.Module),
		vessels: make(map[string]domain.ModuleVessel),
	}
}

// Get retrieves a module by ID.
func (s *ModuleStore) Get(_ context.Context, id string) (*domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	module, ok := s.modules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &module, nil
}

// List returns all modules ordered by ID.
func (s *ModuleStore) List(_ context.Context) ([]domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Module, 0, len(s.modules))
	for _, m := range s.modules {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save stores or updates a module.
func (s *ModuleStore) Save(_ context.Context, module domain.Module) error {
	if module.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[module.ID] = module
	return nil
}

// GetVessel retrieves a vessel by ID.
func (s *ModuleStore) GetVessel(_ context.Context, id string) (*domain.ModuleVessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vessel, ok := s.vessels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &vessel, nil
}

// ListVessels returns all vessels ordered by ID.
func (s *ModuleStore) ListVessels(_ context.Context) ([]domain.ModuleVessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ModuleVessel, 0, len(s.vessels))
	for _, v := range s.vessels {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveVessel stores or updates a vessel.
func (s *ModuleStore) SaveVessel(_ context.Context, vessel domain.ModuleVessel) error {
	if vessel.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vessels[vessel.ID] = vessel
	return nil
}
