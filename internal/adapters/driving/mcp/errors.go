// Package mcp provides an MCP (Model Context Protocol) server adapter for
// usdinspect. It lets AI assistants walk a composed stage, list properties
// and ask which layer wins an opinion and what it evaluates to.
package mcp

import "errors"

// ErrMissingStageService is returned when the stage service is not provided.
var ErrMissingStageService = errors.New("mcp: stage service is required")
