// Package chunker splits extracted document text into overlapping,
// sentence-bounded chunks.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor chunks each page of a document, then the joined full text for
// content that spans pages. It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	crossPages bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithCrossPageChunks toggles the extra chunks built from the full text.
func WithCrossPageChunks(enabled bool) Option {
	return func(p *Processor) {
		p.crossPages = enabled
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		crossPages: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process creates chunks from the extracted pages.
// Input chunks are ignored. Indices are global across the document: page
// chunks come first, then cross-page chunks with no page number.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, src *domain.ExtractedDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	if src == nil || len(src.Pages) == 0 {
		return nil, nil
	}

	var (
		chunks  []domain.Chunk
		cleaned []string
	)

	for _, page := range src.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := CleanText(page.Text)
		if text == "" {
			continue
		}
		cleaned = append(cleaned, text)
		chunks = p.appendChunks(chunks, doc, Segment(text, domain.PageRef(page.Number), p.chunkSize, p.overlap))
	}

	// Single-page documents would only repeat themselves.
	if p.crossPages && len(cleaned) > 1 {
		full := strings.Join(cleaned, " ")
		chunks = p.appendChunks(chunks, doc, Segment(full, nil, p.chunkSize, p.overlap))
	}

	return chunks, nil
}

func (p *Processor) appendChunks(dst []domain.Chunk, doc *domain.Document, segmented []domain.Chunk) []domain.Chunk {
	for _, c := range segmented {
		c.ID = uuid.New().String()
		c.Index = len(dst)
		if doc != nil {
			c.DocumentID = doc.ID
		}
		dst = append(dst, c)
	}
	return dst
}
