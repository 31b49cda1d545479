package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var structureJSON bool

var structureCmd = &cobra.Command{
	Use:   "structure <module-id>",
	Short: "Show the derived path of every file",
	Long: `Classifies every file of a module and prints the local path derived from
the structure rules. Files whose path cannot be derived are listed at the
module root.`,
	Args: cobra.ExactArgs(1),
	RunE: runStructure,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage cached tags",
}

var tagsResetCmd = &cobra.Command{
	Use:   "reset <module-id>",
	Short: "Drop the cached tags of a module",
	Long:  `Drops the cached tags of a module so the next structure computation classifies every file again.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsReset,
}

func init() {
	structureCmd.Flags().BoolVar(&structureJSON, "json", false, "output paths as JSON")
	rootCmd.AddCommand(structureCmd)

	tagsCmd.AddCommand(tagsResetCmd)
	rootCmd.AddCommand(tagsCmd)
}

type structureEntry struct {
	SourceID int64  `json:"source_id"`
	Path     string `json:"path"`
}

func runStructure(cmd *cobra.Command, args []string) error {
	if memberService == nil {
		return errors.New("member service not configured")
	}

	root, err := memberService.SelectMembers(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to compute structure: %w", err)
	}

	entries := make([]structureEntry, 0, len(root.Lexicon))
	for id, path := range root.Lexicon {
		entries = append(entries, structureEntry{SourceID: id, Path: path})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path == entries[j].Path {
			return entries[i].SourceID < entries[j].SourceID
		}
		return entries[i].Path < entries[j].Path
	})

	if structureJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal structure: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No files found.")
		return nil
	}
	for _, e := range entries {
		cmd.Printf("%6d  %s\n", e.SourceID, e.Path)
	}
	return nil
}

func runTagsReset(cmd *cobra.Command, args []string) error {
	if resourceController == nil {
		return errors.New("resource controller not configured")
	}

	if err := resourceController.ResetTags(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to reset tags: %w", err)
	}

	cmd.Printf("Tags of %s reset.\n", args[0])
	return nil
}
