package driven

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
type VectorIndex interface {
	// Add stores the embeddings of the given chunks. Chunks without an
	// embedding are ignored.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes all vectors of a document.
	Delete(ctx context.Context, documentID string) error

	// Search returns up to limit chunks whose cosine similarity to the
	// query is at least threshold, ordered by descending similarity.
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.ChunkHit, error)
}
