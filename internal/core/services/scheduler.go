package services

import (
	"context"
	"sync"
	"time"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// defaultSchedulerTick is how often the scheduler checks whether a sync is due.
const defaultSchedulerTick = time.Minute

// Scheduler syncs every configured module at a fixed interval while a long
// running command is active. A sync that is still running when the next one
// becomes due delays it.
type Scheduler struct {
	engine   driving.ContentEngine
	interval time.Duration
	tick     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	state   domain.SyncSchedule
}

// NewScheduler creates a scheduler syncing all modules every interval.
func NewScheduler(engine driving.ContentEngine, interval time.Duration) *Scheduler {
	tick := defaultSchedulerTick
	if interval < tick {
		tick = interval
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		tick:     tick,
		now:      time.Now,
		state:    domain.SyncSchedule{Interval: interval},
	}
}

// Start runs the scheduler loop. It blocks until Stop is called or the
// context is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.interval <= 0 {
		s.mu.Unlock()
		return domain.ErrInvalidInput
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.state.NextRun = s.now().Add(s.interval)
	stopCh := s.stopCh
	s.mu.Unlock()

	logger.Debug("Scheduler: syncing every %s", s.interval)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// Stop shuts the scheduler down and waits for a running sync.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Status returns a snapshot of the schedule.
func (s *Scheduler) Status() domain.SyncSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) runIfDue(ctx context.Context) {
	s.mu.Lock()
	now := s.now()
	if s.state.Running || now.Before(s.state.NextRun) {
		s.mu.Unlock()
		return
	}
	s.state.Running = true
	s.state.LastRun = now
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		err := s.engine.SyncAll(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		ended := s.now()
		s.state.Running = false
		s.state.NextRun = ended.Add(s.interval)
		if err != nil {
			logger.Warn("Scheduled sync: %v", err)
			s.state.LastError = err.Error()
			return
		}
		s.state.LastError = ""
		s.state.LastSuccess = ended
	}()
}
