package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Schneison/unima/internal/core/domain"
)

// ModuleInput addresses one module.
type ModuleInput struct {
	ModuleID string `json:"module_id" jsonschema:"the local module id"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	ModuleID string `json:"module_id,omitempty" jsonschema:"the module to sync; all modules when empty"`
}

// StatusOutput reports a finished operation.
type StatusOutput struct {
	Status string `json:"status"`
}

// StructureOutput lists the derived path of every resource of a module.
type StructureOutput struct {
	Paths []PathOutput `json:"paths"`
	Count int          `json:"count"`
}

// PathOutput is the path of one source.
type PathOutput struct {
	SourceID int64  `json:"source_id"`
	Path     string `json:"path"`
}

// MembersInput is the input schema for the members tool.
type MembersInput struct {
	ModuleID     string `json:"module_id" jsonschema:"the local module id"`
	Architecture string `json:"architecture,omitempty" jsonschema:"source or structure (default structure)"`
	Sorting      string `json:"sorting,omitempty" jsonschema:"ascending or descending (default ascending)"`
	Search       string `json:"search,omitempty" jsonschema:"only members whose title contains this text"`
}

// MembersOutput lists the leaves of a member tree.
type MembersOutput struct {
	Members []MemberOutput `json:"members"`
	Count   int            `json:"count"`
}

// MemberOutput is one leaf of a member tree.
type MemberOutput struct {
	SourceID   int64             `json:"source_id"`
	Path       string            `json:"path"`
	Title      string            `json:"title"`
	Type       string            `json:"type"`
	Action     string            `json:"action"`
	Downloaded bool              `json:"downloaded"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// DownloadInput is the input schema for the download tool.
type DownloadInput struct {
	SourceIDs []int64 `json:"source_ids" jsonschema:"the sources to download"`
	Force     bool    `json:"force,omitempty" jsonschema:"download even if the file exists"`
}

// DownloadOutput reports the outcome of every downloaded file.
type DownloadOutput struct {
	Results []DownloadResultOutput `json:"results"`
}

// DownloadResultOutput is the outcome of one file.
type DownloadResultOutput struct {
	SourceID int64  `json:"source_id"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync",
		Description: "Fetch the contents of a module, or of all modules, into the local store",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect",
		Description: "Detect the enrolled courses and their categories",
	}, s.handleDetect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "structure",
		Description: "List the derived local path of every file of a module",
	}, s.handleStructure)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "members",
		Description: "Show the member tree of a module as a flat list of leaves",
	}, s.handleMembers)

	if s.ports.Controller != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reset_tags",
			Description: "Drop the cached tags of a module so they are classified again",
		}, s.handleResetTags)
	}

	if s.ports.Downloads != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "download",
			Description: "Download files into the storage directory",
		}, s.handleDownload)
	}
}

func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	var err error
	if input.ModuleID == "" {
		err = s.ports.Content.SyncAll(ctx)
	} else {
		err = s.ports.Content.Sync(ctx, input.ModuleID)
	}
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "synced"}, nil
}

func (s *Server) handleDetect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	if err := s.ports.Content.Detect(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "detected"}, nil
}

func (s *Server) handleStructure(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ModuleInput,
) (*mcp.CallToolResult, StructureOutput, error) {
	if input.ModuleID == "" {
		return nil, StructureOutput{}, fmt.Errorf("%w: module_id is required", domain.ErrInvalidInput)
	}
	root, err := s.ports.Members.SelectMembers(ctx, input.ModuleID)
	if err != nil {
		return nil, StructureOutput{}, err
	}
	paths := lexiconPaths(root.Lexicon)
	return nil, StructureOutput{Paths: paths, Count: len(paths)}, nil
}

func (s *Server) handleMembers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MembersInput,
) (*mcp.CallToolResult, MembersOutput, error) {
	if input.ModuleID == "" {
		return nil, MembersOutput{}, fmt.Errorf("%w: module_id is required", domain.ErrInvalidInput)
	}
	sorting := domain.Sorting(input.Sorting)
	if sorting == "" {
		sorting = domain.SortAscending
	}
	root, err := s.ports.Members.CreateMembers(ctx, input.ModuleID, domain.ArchitectureOptions{
		Type:       domain.ArchitectureType(input.Architecture),
		Sorting:    sorting,
		SearchTerm: input.Search,
	})
	if err != nil {
		return nil, MembersOutput{}, err
	}

	var members []MemberOutput
	collectLeaves(&root.Member, "", &members)
	return nil, MembersOutput{Members: members, Count: len(members)}, nil
}

func (s *Server) handleResetTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ModuleInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.ModuleID == "" {
		return nil, StatusOutput{}, fmt.Errorf("%w: module_id is required", domain.ErrInvalidInput)
	}
	if err := s.ports.Controller.ResetTags(ctx, input.ModuleID); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "reset"}, nil
}

func (s *Server) handleDownload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DownloadInput,
) (*mcp.CallToolResult, DownloadOutput, error) {
	if len(input.SourceIDs) == 0 {
		return nil, DownloadOutput{}, errors.New("source_ids must not be empty")
	}
	for _, id := range input.SourceIDs {
		if err := s.ports.Downloads.RequestDownload(ctx, id, !input.Force); err != nil {
			return nil, DownloadOutput{}, fmt.Errorf("request download of %d: %w", id, err)
		}
	}
	if err := s.ports.Downloads.Wait(ctx); err != nil {
		return nil, DownloadOutput{}, err
	}

	results := s.ports.Downloads.Results()
	output := DownloadOutput{Results: make([]DownloadResultOutput, len(results))}
	for i, r := range results {
		output.Results[i] = DownloadResultOutput{SourceID: r.Element.SourceID, Path: r.Element.Path}
		if r.Err != nil {
			output.Results[i].Error = r.Err.Error()
		}
	}
	return nil, output, nil
}

// lexiconPaths returns the lexicon ordered by path.
func lexiconPaths(lexicon map[int64]string) []PathOutput {
	paths := make([]PathOutput, 0, len(lexicon))
	for id, path := range lexicon {
		paths = append(paths, PathOutput{SourceID: id, Path: path})
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Path == paths[j].Path {
			return paths[i].SourceID < paths[j].SourceID
		}
		return paths[i].Path < paths[j].Path
	})
	return paths
}

func collectLeaves(m *domain.Member, prefix string, out *[]MemberOutput) {
	for _, child := range m.Children {
		path := child.Title
		if prefix != "" {
			path = prefix + "/" + child.Title
		}
		if child.Details == nil {
			collectLeaves(child, path, out)
			continue
		}
		d := child.Details
		leaf := MemberOutput{
			SourceID: d.SourceID,
			Path:     path,
			Title:    d.Title,
			Type:     string(d.Type),
			Action:   string(d.MainAction),
			Tags:     d.Tags,
		}
		if d.Resource != nil {
			leaf.Downloaded = d.Resource.Downloaded
		}
		*out = append(*out, leaf)
	}
}
