// Package tui provides an interactive terminal user interface for docsift.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Search provides fused search and faceting.
	Search driving.SearchService

	// Document lists and reads accepted documents.
	Document driving.DocumentService

	// Settings supplies the default search mode and backs the settings view.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Only search is required; the documents view reports its own absence.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
