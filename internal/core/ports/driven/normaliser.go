package driven

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// Normaliser extracts per-page text from raw documents.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text of a raw document.
	// Chunking is handled by the PostProcessor pipeline.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error)
}
