package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/Schneison/unima/internal/core/domain"
)

var (
	membersArch       string
	membersDescending bool
	membersSearch     string
	membersSections   bool
	actionArch        string
)

var (
	folderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	savedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	remoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Browse and act on module members",
}

var membersShowCmd = &cobra.Command{
	Use:   "show <module-id>",
	Short: "Show the member tree of a module",
	Long: `Shows a module as a tree. The structure architecture arranges files by
their derived paths; the source architecture mirrors the course sections.`,
	Args: cobra.ExactArgs(1),
	RunE: runMembersShow,
}

var membersActionCmd = &cobra.Command{
	Use:   "action <source-id> <action>",
	Short: "Apply an action to a member",
	Long: `Applies an action to a member. Actions:
  file_download  queue the file for download
  file_open      print the location of the downloaded file
  file_delete    delete the downloaded file
  link_open      print the remote URL`,
	Args: cobra.ExactArgs(2),
	RunE: runMembersAction,
}

var membersHideCmd = &cobra.Command{
	Use:   "hide <source-id>",
	Short: "Hide a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runMembersVisibility(false),
}

var membersUnhideCmd = &cobra.Command{
	Use:   "unhide <source-id>",
	Short: "Show a hidden source again",
	Args:  cobra.ExactArgs(1),
	RunE:  runMembersVisibility(true),
}

var membersMarkCmd = &cobra.Command{
	Use:   "mark <source-id> <true|false>",
	Short: "Mark or unmark a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runMembersMark,
}

func init() {
	membersShowCmd.Flags().StringVarP(&membersArch, "arch", "a", string(domain.ArchitectureStructure), "architecture: structure or source")
	membersShowCmd.Flags().BoolVarP(&membersDescending, "desc", "d", false, "sort titles descending")
	membersShowCmd.Flags().StringVarP(&membersSearch, "search", "s", "", "only show members whose title contains the text")
	membersShowCmd.Flags().BoolVar(&membersSections, "sections", false, "list sources by section instead of a tree")
	membersActionCmd.Flags().StringVarP(&actionArch, "arch", "a", string(domain.ArchitectureStructure), "architecture the member belongs to")

	membersCmd.AddCommand(membersShowCmd)
	membersCmd.AddCommand(membersActionCmd)
	membersCmd.AddCommand(membersHideCmd)
	membersCmd.AddCommand(membersUnhideCmd)
	membersCmd.AddCommand(membersMarkCmd)
	rootCmd.AddCommand(membersCmd)
}

func runMembersShow(cmd *cobra.Command, args []string) error {
	if memberService == nil {
		return errors.New("member service not configured")
	}
	ctx := cmd.Context()

	if membersSections {
		items, err := memberService.SelectSectionItems(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list sections: %w", err)
		}
		printSections(cmd, items)
		return nil
	}

	sorting := domain.SortAscending
	if membersDescending {
		sorting = domain.SortDescending
	}
	root, err := memberService.CreateMembers(ctx, args[0], domain.ArchitectureOptions{
		Type:       domain.ArchitectureType(membersArch),
		Sorting:    sorting,
		SearchTerm: membersSearch,
	})
	if err != nil {
		return fmt.Errorf("failed to build members: %w", err)
	}

	if len(root.Children) == 0 {
		cmd.Println("No members found.")
		return nil
	}
	cmd.Println(renderMember(&root.Member).String())
	return nil
}

// renderMember converts a member tree into a lipgloss tree.
func renderMember(m *domain.Member) *tree.Tree {
	t := tree.Root(folderStyle.Render(m.Title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)
	for _, child := range m.Children {
		if child.Details == nil {
			t.Child(renderMember(child))
			continue
		}
		t.Child(renderLeaf(child))
	}
	return t
}

func renderLeaf(m *domain.Member) string {
	d := m.Details
	style := remoteStyle
	if d.Resource != nil && d.Resource.Downloaded {
		style = savedStyle
	}

	var b strings.Builder
	b.WriteString(style.Render(m.Title))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  #%d %s", d.SourceID, d.MainAction)))
	if !d.Visible {
		b.WriteString(mutedStyle.Render(" hidden"))
	}
	if len(d.Tags) > 0 {
		names := make([]string, 0, len(d.Tags))
		for name := range d.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]string, len(names))
		for i, name := range names {
			pairs[i] = name + "=" + d.Tags[name]
		}
		b.WriteString(mutedStyle.Render(" [" + strings.Join(pairs, ", ") + "]"))
	}
	return b.String()
}

func printSections(cmd *cobra.Command, items map[int]*domain.SectionItem) {
	if len(items) == 0 {
		cmd.Println("No sections found.")
		return
	}
	indexes := make([]int, 0, len(items))
	for index := range items {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	for _, index := range indexes {
		cmd.Println(folderStyle.Render(fmt.Sprintf("Section %d", index)))
		for _, child := range items[index].Children {
			cmd.Printf("  %6d  %s (%s)\n", child.Source.ID, child.Source.Title, child.Source.Type)
			for _, c := range child.Children {
				cmd.Printf("    %6d  %s (%s)\n", c.ID, c.Title, c.Type)
			}
		}
	}
}

func runMembersAction(cmd *cobra.Command, args []string) error {
	if memberService == nil {
		return errors.New("member service not configured")
	}
	id, err := parseSourceID(args[0])
	if err != nil {
		return err
	}
	action := domain.MemberAction(args[1])

	ctx := cmd.Context()
	result, err := memberService.ApplyAction(ctx, id, domain.ArchitectureType(actionArch), action)
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", action, err)
	}

	switch action {
	case domain.ActionFileDownload:
		if downloadService != nil {
			if err := downloadService.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for downloads: %w", err)
			}
			for _, r := range downloadService.Results() {
				if r.Err != nil {
					return fmt.Errorf("download of %d failed: %w", r.Element.SourceID, r.Err)
				}
				cmd.Printf("Saved %s\n", r.Element.Path)
			}
		}
	case domain.ActionFileDelete:
		cmd.Printf("Deleted file of source %d.\n", id)
	default:
		if result != "" {
			cmd.Println(result)
		}
	}
	return nil
}

func runMembersVisibility(visible bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if memberService == nil {
			return errors.New("member service not configured")
		}
		id, err := parseSourceID(args[0])
		if err != nil {
			return err
		}
		if err := memberService.EditSource(cmd.Context(), domain.SourceEdit{ID: id, Visible: &visible}); err != nil {
			return fmt.Errorf("failed to edit source: %w", err)
		}
		cmd.Printf("Source %d visible: %t\n", id, visible)
		return nil
	}
}

func runMembersMark(cmd *cobra.Command, args []string) error {
	if memberService == nil {
		return errors.New("member service not configured")
	}
	id, err := parseSourceID(args[0])
	if err != nil {
		return err
	}
	marked, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid mark %q", args[1])
	}
	if err := memberService.EditResource(cmd.Context(), domain.ResourceEdit{SourceID: id, Marked: &marked}); err != nil {
		return fmt.Errorf("failed to edit resource: %w", err)
	}
	cmd.Printf("Source %d marked: %t\n", id, marked)
	return nil
}
