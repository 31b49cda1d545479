package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Schneison/unima/internal/adapters/driven/config/file"
	"github.com/Schneison/unima/internal/adapters/driven/storage/sqlite"
	"github.com/Schneison/unima/internal/adapters/driving/cli"
	"github.com/Schneison/unima/internal/connectors/moodle"
	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/core/services"
	"github.com/Schneison/unima/internal/logger"
	"github.com/Schneison/unima/internal/rules"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cli.SetVersion(version)

	app, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unima: %v\n", err)
		return err
	}
	defer app.close()

	cli.SetServices(app.services)
	return cli.Execute(ctx)
}

type app struct {
	services cli.Services
	store    *sqlite.Store
	watcher  *rules.Watcher
}

func newApp(ctx context.Context) (*app, error) {
	configDir, err := file.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("locate config dir: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	storageDir := settings.Storage.Directory
	if storageDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home dir: %w", err)
		}
		storageDir = filepath.Join(home, "Unima")
	}
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = configDir
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{store: store}

	registry := rules.NewRegistry()
	controller := services.NewResourceController(
		registry, storageDir,
		store.SourceStore(), store.ResourceStore(), store.TagStore(), store.ModuleStore(),
	)
	if err := controller.OnStart(ctx, storageDir); err != nil {
		logger.Warn("Loading global rules: %v", err)
	}

	watcher, err := rules.NewWatcher(registry, func(ctx context.Context, module string) {
		if err := controller.ResetTags(ctx, module); err != nil {
			logger.Warn("Resetting tags of %s: %v", module, err)
		}
	})
	if err != nil {
		logger.Warn("Rule watcher disabled: %v", err)
	} else {
		controller.SetWatcher(watcher)
		a.watcher = watcher
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Rule watcher stopped: %v", err)
			}
		}()
	}

	processes := services.NewProcessManager()

	var downloader driven.Downloader
	var contentEngine *services.ContentEngine
	client, err := moodle.NewClient(moodle.Config{
		URL:    settings.Moodle.URL,
		Token:  settings.Moodle.Token,
		Cookie: settings.Moodle.Cookie,
	})
	switch {
	case err == nil:
		downloader = client
		contentEngine = services.NewContentEngine(
			client, store.ContentStore(), store.ModuleStore(), processes,
			client.CourseURL, settings.Ingest.Concurrency,
		)
	case errors.Is(err, domain.ErrMissingCredentials):
		logger.Debug("No web service token configured")
	default:
		logger.Warn("Moodle client: %v", err)
	}

	downloads := services.NewDownloadManager(
		controller, store.SourceStore(), store.ResourceStore(), store.ModuleStore(),
		downloader, processes, storageDir,
	)
	members := services.NewMemberService(
		controller, downloads, store.SourceStore(), store.ResourceStore(), store.ModuleStore(),
	)

	a.services = cli.Services{
		Settings:   settingsService,
		Controller: controller,
		Downloads:  downloads,
		Members:    members,
	}
	if contentEngine != nil {
		a.services.Content = contentEngine
		a.services.Scheduler = func(interval time.Duration) driving.Scheduler {
			return services.NewScheduler(contentEngine, interval)
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logger.Debug("Closing rule watcher: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Debug("Closing database: %v", err)
	}
}
