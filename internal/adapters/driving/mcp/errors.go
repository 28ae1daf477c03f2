// Package mcp provides an MCP (Model Context Protocol) server adapter for docsift.
// It lets AI assistants search the local corpus and check documents for
// duplicates before ingesting them.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrIngestUnavailable is returned by check_duplicate when no ingest service is wired.
var ErrIngestUnavailable = errors.New("mcp: ingest service is not configured")
