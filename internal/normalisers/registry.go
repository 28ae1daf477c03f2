package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// MIME types of the formats docsift extracts natively.
const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
	MIMEText     = "text/plain"
)

// extensionTypes maps lower-case file extensions to MIME types.
// Extensions missing here fall back to the system MIME table.
var extensionTypes = map[string]string{
	".pdf":      MIMEPDF,
	".docx":     MIMEDOCX,
	".pptx":     MIMEPPTX,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
	".txt":      MIMEText,
	".text":     MIMEText,
	".csv":      "text/csv",
	".json":     "application/json",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".xml":      "application/xml",
}

// DetectMIMEType returns the MIME type for a file name based on its
// extension. Parameters such as charset are stripped. Returns
// "application/octet-stream" when the extension is unknown.
func DetectMIMEType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return "application/octet-stream"
}

// Registry dispatches raw documents to the highest priority normaliser
// that handles their MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser. Registration order breaks priority ties.
func (r *Registry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise extracts text with the best matching normaliser. The MIME
// type is detected from the file name when the raw document has none.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, fmt.Errorf("normalise: %w", domain.ErrInvalidInput)
	}
	mimeType := raw.MIMEType
	if mimeType == "" {
		mimeType = DetectMIMEType(raw.FileName)
		raw.MIMEType = mimeType
	}

	n := r.lookup(mimeType)
	if n == nil {
		return nil, fmt.Errorf("normalise %s (%s): %w", raw.FileName, mimeType, domain.ErrUnsupportedType)
	}
	logger.Debug("Normalising %s as %s (priority %d)", raw.FileName, mimeType, n.Priority())

	extracted, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.FileName, err)
	}
	return extracted, nil
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Supports reports whether a normaliser is registered for the MIME type.
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(mimeType) != nil
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				return n
			}
		}
	}
	return nil
}
