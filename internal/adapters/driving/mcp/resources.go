package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for unima resources.
	uriScheme = "unima://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "modules/{moduleId}/structure",
		Name:        "module-structure",
		Description: "Derived local path of every file of a module",
		MIMEType:    "application/json",
	}, s.handleStructureResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "modules/{moduleId}/sections",
		Name:        "module-sections",
		Description: "Sources of a module grouped by course section",
		MIMEType:    "application/json",
	}, s.handleSectionsResource)
}

func (s *Server) handleStructureResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	moduleID := extractModuleID(req.Params.URI, "/structure")
	if moduleID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	root, err := s.ports.Members.SelectMembers(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("selecting members: %w", err)
	}
	return jsonResource(req.Params.URI, lexiconPaths(root.Lexicon))
}

func (s *Server) handleSectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	moduleID := extractModuleID(req.Params.URI, "/sections")
	if moduleID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	items, err := s.ports.Members.SelectSectionItems(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("selecting sections: %w", err)
	}

	type sourceInfo struct {
		ID       int64        `json:"id"`
		Title    string       `json:"title"`
		Type     string       `json:"type"`
		URL      string       `json:"url"`
		Children []sourceInfo `json:"children,omitempty"`
	}
	type sectionInfo struct {
		Index   int          `json:"index"`
		Sources []sourceInfo `json:"sources"`
	}

	indexes := make([]int, 0, len(items))
	for index := range items {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	sections := make([]sectionInfo, 0, len(indexes))
	for _, index := range indexes {
		section := sectionInfo{Index: index}
		for _, child := range items[index].Children {
			info := sourceInfo{
				ID:    child.Source.ID,
				Title: child.Source.Title,
				Type:  string(child.Source.Type),
				URL:   child.Source.URL,
			}
			for _, c := range child.Children {
				info.Children = append(info.Children, sourceInfo{ID: c.ID, Title: c.Title, Type: string(c.Type), URL: c.URL})
			}
			section.Sources = append(section.Sources, info)
		}
		sections = append(sections, section)
	}
	return jsonResource(req.Params.URI, sections)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractModuleID extracts the module ID from a URI like unima://modules/{moduleId}<suffix>.
func extractModuleID(uri, suffix string) string {
	const prefix = uriScheme + "modules/"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
