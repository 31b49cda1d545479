// Package mcp provides an MCP (Model Context Protocol) server adapter for unima.
// It lets assistants sync courses, inspect derived structures and request
// downloads.
package mcp

import "errors"

// ErrMissingContentEngine is returned when the content engine is not provided.
var ErrMissingContentEngine = errors.New("mcp: content engine is required")

// ErrMissingMemberService is returned when the member service is not provided.
var ErrMissingMemberService = errors.New("mcp: member service is required")
