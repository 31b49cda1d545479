package mcp

import (
	"github.com/Schneison/unima/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Content syncs and detects courses.
	Content driving.ContentEngine

	// Members builds member trees.
	Members driving.MemberService

	// Controller resets cached tags. Optional.
	Controller driving.ResourceController

	// Downloads fetches files. Optional.
	Downloads driving.DownloadService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Content == nil {
		return ErrMissingContentEngine
	}
	if p.Members == nil {
		return ErrMissingMemberService
	}
	return nil
}
