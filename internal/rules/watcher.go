package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Schneison/unima/internal/logger"
)

// ReloadFunc is called after a module's rules were reloaded.
type ReloadFunc func(ctx context.Context, module string)

// Watcher reloads a module's rules whenever a rule document in its config
// tree is created, written, removed or renamed.
type Watcher struct {
	registry *Registry
	onReload ReloadFunc
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	modules map[string]watchedModule // config dir -> module
}

type watchedModule struct {
	name string
	path string
}

// NewWatcher creates a watcher reloading into registry. onReload may be nil.
func NewWatcher(registry *Registry, onReload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		registry: registry,
		onReload: onReload,
		fsw:      fsw,
		modules:  make(map[string]watchedModule),
	}, nil
}

// Watch adds every directory of the module's config tree. fsnotify is not
// recursive, so directories created later are added as they appear.
func (w *Watcher) Watch(module, modulePath string) error {
	configDir := filepath.Join(modulePath, ConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	w.mu.Lock()
	w.modules[filepath.Clean(configDir)] = watchedModule{name: module, path: modulePath}
	w.mu.Unlock()

	return filepath.WalkDir(configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if module, ok := w.handleEvent(event); ok {
				w.reload(ctx, module)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Rule watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handleEvent maps an event to the module whose rules must be reloaded.
func (w *Watcher) handleEvent(event fsnotify.Event) (watchedModule, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return watchedModule{}, false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return watchedModule{}, false
	}

	module, ok := w.moduleFor(event.Name)
	if !ok {
		return watchedModule{}, false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				logger.Warn("Failed to watch %s: %v", event.Name, err)
			}
			return module, true
		}
	}
	if !IsRuleFile(event.Name) {
		return watchedModule{}, false
	}
	return module, true
}

func (w *Watcher) moduleFor(path string) (watchedModule, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	path = filepath.Clean(path)
	for dir, module := range w.modules {
		if path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator)) {
			return module, true
		}
	}
	return watchedModule{}, false
}

func (w *Watcher) reload(ctx context.Context, module watchedModule) {
	if err := w.registry.ReloadModule(module.name, module.path); err != nil {
		logger.Warn("Keeping previous rules of module %s: %v", module.name, err)
		return
	}
	logger.Info("Reloaded rules of module %s", module.name)
	if w.onReload != nil {
		w.onReload(ctx, module.name)
	}
}
