package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var downloadForce bool

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Download and manage course files",
}

var fileDownloadCmd = &cobra.Command{
	Use:   "download <source-id>...",
	Short: "Download files into the storage directory",
	Long: `Downloads the files of the given sources to their derived paths and waits
until all of them are done. Files that already exist are skipped unless
--force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFileDownload,
}

var filePathCmd = &cobra.Command{
	Use:   "path <source-id>",
	Short: "Print the derived path of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilePath,
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete <source-id>",
	Short: "Delete a downloaded file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileDelete,
}

func init() {
	fileDownloadCmd.Flags().BoolVarP(&downloadForce, "force", "f", false, "download even if the file exists")
	fileCmd.AddCommand(fileDownloadCmd)
	fileCmd.AddCommand(filePathCmd)
	fileCmd.AddCommand(fileDeleteCmd)
	rootCmd.AddCommand(fileCmd)
}

func parseSourceID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid source id %q", arg)
	}
	return id, nil
}

func runFileDownload(cmd *cobra.Command, args []string) error {
	if downloadService == nil {
		return errors.New("download service not configured")
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseSourceID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx := cmd.Context()
	for _, id := range ids {
		if err := downloadService.RequestDownload(ctx, id, !downloadForce); err != nil {
			return fmt.Errorf("failed to request download of %d: %w", id, err)
		}
	}
	if err := downloadService.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for downloads: %w", err)
	}

	results := downloadService.Results()
	if len(results) == 0 {
		cmd.Println("Nothing to download.")
		return nil
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  failed  %d: %v\n", r.Element.SourceID, r.Err)
			continue
		}
		cmd.Printf("  saved   %s\n", r.Element.Path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(results))
	}
	return nil
}

func runFilePath(cmd *cobra.Command, args []string) error {
	if downloadService == nil {
		return errors.New("download service not configured")
	}
	id, err := parseSourceID(args[0])
	if err != nil {
		return err
	}

	path, err := downloadService.GetPath(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to derive path: %w", err)
	}
	cmd.Println(path)
	return nil
}

func runFileDelete(cmd *cobra.Command, args []string) error {
	if downloadService == nil {
		return errors.New("download service not configured")
	}
	id, err := parseSourceID(args[0])
	if err != nil {
		return err
	}

	removed, err := downloadService.DeleteFile(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if !removed {
		cmd.Printf("No file of source %d on disk.\n", id)
		return nil
	}
	cmd.Printf("Deleted file of source %d.\n", id)
	return nil
}
