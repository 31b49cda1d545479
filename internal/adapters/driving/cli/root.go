// Package cli provides the cobra command tree of unima.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

var version = "dev"

var verbose bool

var (
	settingsService    driving.SettingsService
	contentEngine      driving.ContentEngine
	resourceController driving.ResourceController
	downloadService    driving.DownloadService
	memberService      driving.MemberService
	newScheduler       func(interval time.Duration) driving.Scheduler
)

// Services holds the driving ports used by the commands.
type Services struct {
	Settings   driving.SettingsService
	Content    driving.ContentEngine
	Controller driving.ResourceController
	Downloads  driving.DownloadService
	Members    driving.MemberService

	// Scheduler creates a periodic sync. Optional.
	Scheduler func(interval time.Duration) driving.Scheduler
}

var rootCmd = &cobra.Command{
	Use:   "unima",
	Short: "Mirror Moodle courses into a local, rule-derived folder structure",
	Long: `unima syncs the contents of your Moodle courses into a local database,
classifies every file with declarative tag rules and downloads it into a
directory tree derived from structure rules.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services used by the commands.
// Commands whose service is nil fail with "not configured".
func SetServices(s Services) {
	settingsService = s.Settings
	contentEngine = s.Content
	resourceController = s.Controller
	downloadService = s.Downloads
	memberService = s.Members
	newScheduler = s.Scheduler
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
