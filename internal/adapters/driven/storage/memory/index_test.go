package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

func indexedChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "GDP growth in Alberta.", PageNumber: domain.PageRef(1), Embedding: []float32{1, 0}},
		{ID: "c2", DocumentID: "doc-1", Content: "Trade and export policy.", PageNumber: domain.PageRef(2), Embedding: []float32{0, 1}},
		{ID: "c3", DocumentID: "doc-2", Content: "Growth of small business.", Embedding: []float32{0.9, 0.1}},
		{ID: "c4", DocumentID: "doc-2", Content: "No embedding here about growth."},
	}
}

func TestSearchIndex_Search(t *testing.T) {
	store := seedStore(t)
	idx := NewSearchIndex(store)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, indexedChunks()))

	hits, err := idx.Search(ctx, "alberta growth", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "a.pdf", hits[0].DocumentName)
	require.NotNil(t, hits[0].PageNumber)
	assert.Equal(t, 1, *hits[0].PageNumber)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-9)

	limited, err := idx.Search(ctx, "growth", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := idx.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchIndex_ReindexReplaces(t *testing.T) {
	store := seedStore(t)
	idx := NewSearchIndex(store)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, indexedChunks()[:1]))
	require.NoError(t, idx.Index(ctx, []domain.Chunk{{ID: "c1", DocumentID: "doc-1", Content: "energy"}}))

	hits, err := idx.Search(ctx, "gdp", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchIndex_ExcludesMergedAndDeleted(t *testing.T) {
	store := seedStore(t)
	idx := NewSearchIndex(store)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, indexedChunks()))

	into := "doc-1"
	require.NoError(t, store.UpdateStatus(ctx, "doc-2", domain.StatusMerged, &into))
	hits, err := idx.Search(ctx, "growth", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1", hits[0].DocumentID)

	require.NoError(t, idx.Delete(ctx, "doc-1"))
	hits, err = idx.Search(ctx, "growth", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_Search(t *testing.T) {
	store := seedStore(t)
	vec := NewVectorIndex(store)
	ctx := context.Background()
	require.NoError(t, vec.Add(ctx, indexedChunks()))

	hits, err := vec.Search(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "c3", hits[1].ChunkID)

	strict, err := vec.Search(ctx, []float32{1, 0}, 10, 0.999)
	require.NoError(t, err)
	assert.Len(t, strict, 1)

	require.NoError(t, vec.Delete(ctx, "doc-1"))
	hits, err = vec.Search(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)
}
