package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// formFeed separates pages in text exported from paginated sources.
const formFeed = "\f"

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/yaml",
		"text/toml",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts raw text to an extracted document. Form feeds split
// pages; text without them is a single page. Invalid UTF-8 is replaced.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}

	doc := &domain.ExtractedDocument{
		Title:    extractTitle(raw.FileName),
		Metadata: map[string]any{"format": "text"},
	}
	for i, page := range strings.Split(content, formFeed) {
		if strings.TrimSpace(page) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, domain.PageText{Number: i + 1, Text: page})
	}
	return doc, nil
}

// extractTitle extracts a human-readable title from a file name.
func extractTitle(fileName string) string {
	filename := filepath.Base(fileName)

	// Remove common extensions for cleaner title
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
