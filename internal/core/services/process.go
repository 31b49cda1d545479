package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

// Ensure ProcessManager implements the interface.
var _ driving.ProcessService = (*ProcessManager)(nil)

type processEntry struct {
	process domain.Process
	killed  bool
}

// ProcessManager tracks running operations. Killing a process does not stop
// its work; the reply is dropped when the work finishes.
type ProcessManager struct {
	mu        sync.Mutex
	processes map[string]*processEntry
	now       func() time.Time
}

// NewProcessManager creates an empty manager.
func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		processes: make(map[string]*processEntry),
		now:       time.Now,
	}
}

// Request registers a new process.
func (m *ProcessManager) Request(kind domain.ProcessKind) domain.Process {
	p := domain.Process{ID: uuid.New().String(), Kind: kind, StartedAt: m.now()}
	m.mu.Lock()
	m.processes[p.ID] = &processEntry{process: p}
	m.mu.Unlock()
	return p
}

// Kill marks a process killed. It returns false for unknown processes.
func (m *ProcessManager) Kill(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.processes[id]
	if !ok || entry.killed {
		return false
	}
	entry.killed = true
	return true
}

// List returns the running processes, oldest first.
func (m *ProcessManager) List() []domain.Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Process, 0, len(m.processes))
	for _, entry := range m.processes {
		result = append(result, entry.process)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result
}

// finish removes a process and reports whether its reply may be delivered.
func (m *ProcessManager) finish(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.processes[id]
	if !ok {
		return false
	}
	delete(m.processes, id)
	return !entry.killed
}

// Run executes fn in the background as a process of the given kind. The
// returned channel receives the result and is closed; a killed process
// closes it without a value.
func (m *ProcessManager) Run(ctx context.Context, kind domain.ProcessKind, fn func(context.Context) error) (domain.Process, <-chan error) {
	p := m.Request(kind)
	reply := make(chan error, 1)
	go func() {
		defer close(reply)
		err := fn(ctx)
		if !m.finish(p.ID) {
			logger.Debug("Dropping reply of killed %s process %s", p.Kind, p.ID)
			return
		}
		reply <- err
	}()
	return p, reply
}
