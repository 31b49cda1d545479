package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

// Ensure DownloadManager implements the interface.
var _ driving.DownloadService = (*DownloadManager)(nil)

// DefaultDownloadWorkers bounds concurrent file downloads of one drain.
const DefaultDownloadWorkers = 4

// DownloadManager downloads resources into the storage directory.
// Requests are queued; a single drain at a time takes the whole queue,
// downloads it as one process and starts over while requests arrived
// in the meantime.
type DownloadManager struct {
	controller *ResourceController
	sources    driven.SourceStore
	resources  driven.ResourceStore
	modules    driven.ModuleStore
	downloader driven.Downloader
	processes  *ProcessManager
	storageDir string
	workers    int

	mu       sync.Mutex
	queue    []int64
	draining bool
	idle     chan struct{}
	results  []domain.DownloadResult
}

// NewDownloadManager creates a download manager. Without a downloader
// every download fails with domain.ErrMissingCredentials.
func NewDownloadManager(
	controller *ResourceController,
	sources driven.SourceStore,
	resources driven.ResourceStore,
	modules driven.ModuleStore,
	downloader driven.Downloader,
	processes *ProcessManager,
	storageDir string,
) *DownloadManager {
	if processes == nil {
		processes = NewProcessManager()
	}
	return &DownloadManager{
		controller: controller,
		sources:    sources,
		resources:  resources,
		modules:    modules,
		downloader: downloader,
		processes:  processes,
		storageDir: storageDir,
		workers:    DefaultDownloadWorkers,
	}
}

// RequestDownload queues a source and starts a drain unless one is running.
func (m *DownloadManager) RequestDownload(ctx context.Context, sourceID int64, check bool) error {
	if check {
		loc, err := m.FileExists(ctx, sourceID, true, true)
		if err != nil {
			return err
		}
		if loc != "" {
			logger.Debug("Source %d already downloaded to %s", sourceID, loc)
			return nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, sourceID)
	if !m.draining {
		m.draining = true
		m.idle = make(chan struct{})
		go m.drain(context.WithoutCancel(ctx))
	}
	return nil
}

// Wait blocks until no drain is running.
func (m *DownloadManager) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		if !m.draining {
			m.mu.Unlock()
			return nil
		}
		idle := m.idle
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Results returns the results gathered since the last call.
func (m *DownloadManager) Results() []domain.DownloadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := m.results
	m.results = nil
	return results
}

func (m *DownloadManager) drain(ctx context.Context) {
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		if len(batch) == 0 {
			m.draining = false
			close(m.idle)
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		p := m.processes.Request(domain.ProcessDownload)
		results := m.downloadAll(ctx, m.elements(ctx, batch))
		if !m.processes.finish(p.ID) {
			logger.Debug("Dropping results of killed download %s", p.ID)
			continue
		}
		m.mu.Lock()
		m.results = append(m.results, results...)
		m.mu.Unlock()
	}
}

// elements resolves the URL and destination of every queued source.
// Unknown sources are skipped.
func (m *DownloadManager) elements(ctx context.Context, ids []int64) []domain.DownloadElement {
	sources, err := m.sources.GetMany(ctx, ids)
	if err != nil {
		logger.Warn("Loading download sources: %v", err)
		return nil
	}
	elements := make([]domain.DownloadElement, 0, len(sources))
	for _, source := range sources {
		path, err := m.GetPath(ctx, source.ID)
		if err != nil {
			logger.Debug("No path for source %d: %v", source.ID, err)
		}
		elements = append(elements, domain.DownloadElement{SourceID: source.ID, URL: source.URL, Path: path})
	}
	return elements
}

func (m *DownloadManager) downloadAll(ctx context.Context, elements []domain.DownloadElement) []domain.DownloadResult {
	results := make([]domain.DownloadResult, len(elements))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, element := range elements {
		g.Go(func() error {
			err := m.download(ctx, element)
			if err != nil {
				logger.Warn("Download of %s: %v", element.URL, err)
			}
			results[i] = domain.DownloadResult{Element: element, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// download writes the file into a temporary sibling of the destination
// and renames it on success.
func (m *DownloadManager) download(ctx context.Context, element domain.DownloadElement) error {
	if element.Path == "" {
		return domain.ErrMissingPath
	}
	if m.downloader == nil {
		return domain.ErrMissingCredentials
	}
	dir := filepath.Dir(element.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = m.downloader.Download(ctx, element.URL, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), element.Path); err != nil {
		return fmt.Errorf("move download: %w", err)
	}

	loc := element.Path
	if err := m.resources.Edit(ctx, domain.ResourceEdit{SourceID: element.SourceID, Location: &loc}); err != nil {
		return fmt.Errorf("record location: %w", err)
	}
	return nil
}

// GetPath returns <storage>/<vessel>/<module>/<sub path>/<file name>.
func (m *DownloadManager) GetPath(ctx context.Context, sourceID int64) (string, error) {
	resource, err := m.resources.GetBySource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("source %d has no resource: %w", sourceID, domain.ErrMissingPath)
		}
		return "", err
	}
	if resource.FileName == "" {
		return "", fmt.Errorf("source %d has no file name: %w", sourceID, domain.ErrMissingPath)
	}
	source, err := m.sources.Get(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("get source %d: %w", sourceID, err)
	}
	module, err := m.modules.Get(ctx, source.Module)
	if err != nil {
		return "", fmt.Errorf("get module %s: %w", source.Module, err)
	}
	if err := m.controller.OnModuleLoad(ctx, module); err != nil {
		return "", err
	}

	modulePath, err := ModulePath(ctx, m.modules, m.storageDir, module)
	if err != nil {
		return "", err
	}
	subPath, err := m.controller.GetSubPath(ctx, resource, source, module)
	if err != nil {
		return "", err
	}
	return filepath.Join(modulePath, subPath, resource.FileName), nil
}

// FileExists returns the location of a source's file if it exists.
func (m *DownloadManager) FileExists(ctx context.Context, sourceID int64, extensively, update bool) (string, error) {
	resource, err := m.resources.GetBySource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if resource.FileName == "" {
		return "", nil
	}

	loc := ""
	if resource.Location != nil {
		loc = *resource.Location
	}
	if loc == "" {
		if !extensively {
			return "", nil
		}
		loc, err = m.GetPath(ctx, sourceID)
		if err != nil {
			if errors.Is(err, domain.ErrMissingPath) {
				return "", nil
			}
			return "", err
		}
	}

	_, statErr := os.Stat(loc)
	exists := statErr == nil
	if update && resource.Downloaded != exists {
		edit := domain.ResourceEdit{SourceID: sourceID}
		if exists {
			edit.Location = &loc
		} else {
			edit.Downloaded = &exists
		}
		if err := m.resources.Edit(ctx, edit); err != nil {
			return "", fmt.Errorf("update resource %d: %w", sourceID, err)
		}
	}
	if !exists {
		return "", nil
	}
	return loc, nil
}

// DeleteFile removes the downloaded file of a source. The resource is
// marked as not downloaded even when no file could be removed.
func (m *DownloadManager) DeleteFile(ctx context.Context, sourceID int64) (bool, error) {
	resource, err := m.resources.GetBySource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	removed := false
	if resource.Location != nil && *resource.Location != "" {
		if err := os.Remove(*resource.Location); err == nil {
			removed = true
		} else {
			logger.Debug("Removing %s: %v", *resource.Location, err)
		}
	}
	notDownloaded := false
	if err := m.resources.Edit(ctx, domain.ResourceEdit{SourceID: sourceID, Downloaded: &notDownloaded}); err != nil {
		return removed, fmt.Errorf("update resource %d: %w", sourceID, err)
	}
	return removed, nil
}
