package normalisers

import (
	"github.com/custodia-labs/docsift/internal/normalisers/docx"
	"github.com/custodia-labs/docsift/internal/normalisers/html"
	"github.com/custodia-labs/docsift/internal/normalisers/markdown"
	"github.com/custodia-labs/docsift/internal/normalisers/pdf"
	"github.com/custodia-labs/docsift/internal/normalisers/plaintext"
	"github.com/custodia-labs/docsift/internal/normalisers/pptx"
)

// NewDefaultRegistry returns a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(plaintext.New())
	return r
}
