package driven

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// SearchEngine provides lexical search operations over chunks.
type SearchEngine interface {
	// Index adds or updates chunks in the search index.
	Index(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes all chunks of a document from the search index.
	Delete(ctx context.Context, documentID string) error

	// Search performs a keyword search and returns hits with scores normalised to [0,1].
	// Chunks of merged documents are never returned.
	Search(ctx context.Context, query string, limit int) ([]domain.ChunkHit, error)
}
