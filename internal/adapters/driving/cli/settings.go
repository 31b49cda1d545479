package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var tokenCookie string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the Moodle connection, storage locations and ingestion.

Use subcommands to change individual settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsURLCmd = &cobra.Command{
	Use:   "url <site-url>",
	Short: "Set the Moodle site URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsURL,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Set the web service token",
	Long: `Prompts for the Moodle web service token without echoing it.
The token is found under Preferences > Security keys on the Moodle site.`,
	Args: cobra.NoArgs,
	RunE: runSettingsToken,
}

var settingsStorageCmd = &cobra.Command{
	Use:   "storage <directory>",
	Short: "Set the download directory",
	Long:  `Sets the root of downloaded files. Rule files are read from its config/ directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsStorage,
}

var settingsConcurrencyCmd = &cobra.Command{
	Use:   "concurrency <n>",
	Short: "Set the number of sections ingested at once",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsConcurrency,
}

func init() {
	settingsTokenCmd.Flags().StringVar(&tokenCookie, "cookie", "", "session cookie used for file downloads")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsURLCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	settingsCmd.AddCommand(settingsStorageCmd)
	settingsCmd.AddCommand(settingsConcurrencyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Moodle]")
	cmd.Printf("  URL: %s\n", settings.Moodle.URL)
	if settings.Moodle.Token != "" {
		cmd.Printf("  Token: %s\n", maskToken(settings.Moodle.Token))
	} else {
		cmd.Printf("  Token: (not set)\n")
	}
	if settings.Moodle.Cookie != "" {
		cmd.Printf("  Cookie: %s\n", maskToken(settings.Moodle.Cookie))
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Directory: %s\n", settings.Storage.Directory)
	cmd.Printf("  Database: %s\n", settings.Storage.DataDir)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Concurrency: %d\n", settings.Ingest.Concurrency)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Status: %v\n", err)
	} else {
		cmd.Println("Status: ready")
	}
	return nil
}

func runSettingsURL(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Moodle.URL = strings.TrimRight(strings.TrimSpace(args[0]), "/")
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Moodle URL set to: %s\n", settings.Moodle.URL)
	return nil
}

func runSettingsToken(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Web service token: ")
	token := readPassword()
	cmd.Println()

	if err := settingsService.SetCredentials(token, tokenCookie); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}

	cmd.Printf("Token set: %s\n", maskToken(token))
	return nil
}

func runSettingsStorage(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Storage.Directory = args[0]
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Storage directory set to: %s\n", args[0])
	return nil
}

func runSettingsConcurrency(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid concurrency %q: must be a positive number", args[0])
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Ingest.Concurrency = n
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Concurrency set to: %d\n", n)
	return nil
}

// maskToken shows only the edges of a secret.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
