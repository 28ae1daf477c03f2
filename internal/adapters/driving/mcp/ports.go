package mcp

import (
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides fused retrieval and suggestions.
	Search driving.SearchService

	// Ingest classifies candidate documents for the check_duplicate tool.
	Ingest driving.IngestService

	// Document exposes stored documents as resources.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Ingest and Document are optional
	return nil
}
