package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync [module-id...]",
	Short: "Synchronise course contents",
	Long: `Fetches the sections, files and assignments of configured modules into
the local database. If module IDs are provided, only those modules are
synchronised. Otherwise, all modules are synchronised.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if contentEngine == nil {
		return errors.New("content engine not configured")
	}

	ctx := cmd.Context()

	if len(args) == 0 {
		cmd.Println("Synchronising all modules...")

		if err := contentEngine.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Println("All modules synchronised successfully.")
		return nil
	}

	var errs []error
	for _, moduleID := range args {
		cmd.Printf("Synchronising module: %s...\n", moduleID)

		if err := syncWithProgress(ctx, cmd, contentEngine, moduleID); err != nil {
			cmd.Printf("Module %s failed: %v\n", moduleID, err)
			errs = append(errs, fmt.Errorf("%s: %w", moduleID, err))
			continue
		}

		cmd.Printf("Module %s synchronised successfully.\n", moduleID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("sync failed: %w", errors.Join(errs...))
	}
	return nil
}

// syncWithProgress runs a sync process and reports the elapsed time
// until it finishes.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	engine driving.ContentEngine,
	moduleID string,
) error {
	process, done := engine.UpdateModuleContent(ctx, moduleID)
	logger.Debug("Sync of %s running as process %s", moduleID, process.ID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	start := time.Now()
	ticked := false
	for {
		select {
		case err, ok := <-done:
			if ticked {
				cmd.Println()
			}
			if !ok {
				return errors.New("sync was cancelled")
			}
			return err
		case <-ticker.C:
			cmd.Printf("\rSynchronising... %s", time.Since(start).Round(time.Second))
			ticked = true
		}
	}
}
