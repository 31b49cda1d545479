package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schneison/unima/internal/logger"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect enrolled courses",
	Long: `Looks up the courses you are enrolled in and their categories and stores
them as detected modules, grouped by category. Detected modules are kept
apart from configured modules until confirmed.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	if contentEngine == nil {
		return errors.New("content engine not configured")
	}

	cmd.Println("Detecting courses...")

	process, done := contentEngine.FindModules(cmd.Context())
	logger.Debug("Detection running as process %s", process.ID)

	err, ok := <-done
	if !ok {
		return errors.New("detection was cancelled")
	}
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	cmd.Println("Detection complete.")
	return nil
}
