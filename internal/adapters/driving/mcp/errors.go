// Package mcp provides an MCP (Model Context Protocol) server adapter for the annotator.
// It lets AI assistants open units, code spans and relations, and answer codebook questions.
package mcp

import "errors"

// ErrMissingCodingService is returned when the coding service is not provided.
var ErrMissingCodingService = errors.New("mcp: coding service is required")
