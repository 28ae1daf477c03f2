package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/retrieval"
)

// Ensure the indexes implement the interfaces.
var (
	_ driven.SearchEngine = (*SearchIndex)(nil)
	_ driven.VectorIndex  = (*VectorIndex)(nil)
)

// SearchIndex is an in-memory lexical index. A chunk scores the fraction
// of distinct query words it contains. Documents are looked up in the
// store so merged documents drop out of results immediately.
type SearchIndex struct {
	mu     sync.RWMutex
	store  *DocumentStore
	chunks map[string][]domain.Chunk
}

// NewSearchIndex creates a lexical index backed by store.
func NewSearchIndex(store *DocumentStore) *SearchIndex {
	return &SearchIndex{store: store, chunks: make(map[string][]domain.Chunk)}
}

// Index adds chunks, replacing earlier chunks with the same ID.
func (x *SearchIndex) Index(_ context.Context, chunks []domain.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range chunks {
		list := x.chunks[c.DocumentID]
		replaced := false
		for i := range list {
			if list[i].ID == c.ID {
				list[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, c)
		}
		x.chunks[c.DocumentID] = list
	}
	return nil
}

// Delete removes a document's chunks.
func (x *SearchIndex) Delete(_ context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.chunks, documentID)
	return nil
}

// Search scores chunks by query word coverage.
func (x *SearchIndex) Search(_ context.Context, query string, limit int) ([]domain.ChunkHit, error) {
	terms := retrieval.Tokens(query)
	if len(terms) == 0 {
		return nil, nil
	}

	x.mu.RLock()
	var hits []domain.ChunkHit
	for docID, chunks := range x.chunks {
		if x.store.isMerged(docID) {
			continue
		}
		for i := range chunks {
			words := make(map[string]struct{})
			for _, w := range retrieval.Tokens(chunks[i].Content) {
				words[w] = struct{}{}
			}
			matched := 0
			for _, t := range terms {
				if _, ok := words[t]; ok {
					matched++
				}
			}
			if matched == 0 {
				continue
			}
			hits = append(hits, chunkHit(&chunks[i], x.store.fileName(docID), float64(matched)/float64(len(terms))))
		}
	}
	x.mu.RUnlock()

	return topHits(hits, limit), nil
}

// VectorIndex is an in-memory vector index using an exhaustive cosine scan.
type VectorIndex struct {
	mu     sync.RWMutex
	store  *DocumentStore
	chunks map[string][]domain.Chunk
}

// NewVectorIndex creates a vector index backed by store.
func NewVectorIndex(store *DocumentStore) *VectorIndex {
	return &VectorIndex{store: store, chunks: make(map[string][]domain.Chunk)}
}

// Add stores chunks that carry an embedding.
func (v *VectorIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		v.chunks[c.DocumentID] = append(v.chunks[c.DocumentID], c)
	}
	return nil
}

// Delete removes a document's vectors.
func (v *VectorIndex) Delete(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.chunks, documentID)
	return nil
}

// Search returns chunks at least threshold-similar to query.
func (v *VectorIndex) Search(
	_ context.Context, query []float32, limit int, threshold float64,
) ([]domain.ChunkHit, error) {
	v.mu.RLock()
	var hits []domain.ChunkHit
	for docID, chunks := range v.chunks {
		if v.store.isMerged(docID) {
			continue
		}
		for i := range chunks {
			score := retrieval.Cosine(query, chunks[i].Embedding)
			if score < threshold {
				continue
			}
			hits = append(hits, chunkHit(&chunks[i], v.store.fileName(docID), clamp01(score)))
		}
	}
	v.mu.RUnlock()

	return topHits(hits, limit), nil
}

func chunkHit(c *domain.Chunk, fileName string, score float64) domain.ChunkHit {
	h := domain.ChunkHit{
		ChunkID:      c.ID,
		DocumentID:   c.DocumentID,
		DocumentName: fileName,
		Content:      c.Content,
		Score:        score,
	}
	if c.PageNumber != nil {
		h.PageNumber = domain.PageRef(*c.PageNumber)
	}
	return h
}

// topHits sorts by score then chunk ID and keeps limit hits.
func topHits(hits []domain.ChunkHit, limit int) []domain.ChunkHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return strings.Compare(hits[i].ChunkID, hits[j].ChunkID) < 0
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
