package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

func testDoc(id, name string, created time.Time) *domain.Document {
	return &domain.Document{
		ID:        id,
		FileName:  name,
		Title:     name,
		Status:    domain.StatusActive,
		ExactHash: "hash-" + id,
		Fingerprint: domain.StructuralFingerprint{
			PrefixDigest: "p-" + id,
			SuffixDigest: "s-" + id,
			Length:       100,
		},
		Metadata:  map[string]any{"author": "Jo"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func seedStore(t *testing.T) *DocumentStore {
	t.Helper()
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc-1", "a.pdf", base)))
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc-2", "b.pdf", base.Add(time.Hour))))
	require.NoError(t, store.SaveDocument(ctx, testDoc("doc-3", "c.pdf", base.Add(2*time.Hour))))
	return store
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestDocumentStore_SaveDocument_Success(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1", "report.pdf", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", saved.FileName)
	assert.Equal(t, domain.StatusActive, saved.Status)
	assert.Equal(t, "Jo", saved.Metadata["author"])
}

func TestDocumentStore_SaveDocument_DefaultsStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, saved.Status)
}

func TestDocumentStore_SaveDocument_MissingID(t *testing.T) {
	store := NewDocumentStore()
	err := store.SaveDocument(context.Background(), &domain.Document{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_GetDocument_ReturnsCopy(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	doc.Metadata["author"] = "changed"

	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Jo", again.Metadata["author"])
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "one", Index: 0},
		{ID: "c2", DocumentID: "doc-1", Content: "two", Index: 1},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))
	require.NoError(t, store.SaveChunks(ctx, nil))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	chunk, err := store.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "two", chunk.Content)

	_, err = store.GetChunk(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	none, err := store.GetChunks(ctx, "doc-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "doc-1"}}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_ListDocuments_Ordered(t *testing.T) {
	store := seedStore(t)

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-3", docs[2].ID)
}

func TestDocumentStore_FindByExactHash(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	doc, err := store.FindByExactHash(ctx, "hash-doc-2")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", doc.ID)

	_, err = store.FindByExactHash(ctx, "hash-none")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.FindByExactHash(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ActiveListingsExcludeMerged(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	into := "doc-1"
	require.NoError(t, store.UpdateStatus(ctx, "doc-2", domain.StatusMerged, &into))

	refs, err := store.ListFilenames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []driven.DocumentRef{{ID: "doc-1", FileName: "a.pdf"}, {ID: "doc-3", FileName: "c.pdf"}}, refs)

	docs, err := store.ListWithMetadata(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = store.FindByExactHash(ctx, "hash-doc-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDocumentStore_UpdateStatus(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	into := "doc-1"

	require.NoError(t, store.UpdateStatus(ctx, "doc-2", domain.StatusMerged, &into))
	doc, err := store.GetDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.True(t, doc.IsMerged())
	require.NotNil(t, doc.MergedInto)
	assert.Equal(t, "doc-1", *doc.MergedInto)

	assert.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.StatusMerged, nil), domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateStatus(ctx, "doc-1", "deleted", nil), domain.ErrInvalidInput)
}

func TestDocumentStore_UpdateMetadata(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMetadata(ctx, "doc-1", map[string]any{"tag": "q3"}))
	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Jo", doc.Metadata["author"])
	assert.Equal(t, "q3", doc.Metadata["tag"])

	assert.ErrorIs(t, store.UpdateMetadata(ctx, "missing", nil), domain.ErrNotFound)
}

func TestDocumentStore_MergeDocuments(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := store.MergeDocuments(ctx, driven.MergeRequest{
		PrimaryID:    "doc-1",
		SecondaryIDs: []string{"doc-2", "doc-3"},
		PrimaryPatch: map[string]any{"merged_from": []string{"doc-2", "doc-3"}},
		MergedAt:     at,
	})
	require.NoError(t, err)

	primary, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-2", "doc-3"}, primary.Metadata["merged_from"])
	assert.False(t, primary.IsMerged())

	for _, id := range []string{"doc-2", "doc-3"} {
		doc, err := store.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.True(t, doc.IsMerged())
		assert.Equal(t, "doc-1", *doc.MergedInto)
		assert.Equal(t, "doc-1", doc.Metadata["merged_into"])
		assert.Equal(t, "2024-05-01T12:00:00Z", doc.Metadata["merge_date"])
	}
}

func TestDocumentStore_MergeDocuments_RejectsMergedSecondary(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	elsewhere := "doc-3"
	require.NoError(t, store.UpdateStatus(ctx, "doc-2", domain.StatusMerged, &elsewhere))

	err := store.MergeDocuments(ctx, driven.MergeRequest{
		PrimaryID:    "doc-1",
		SecondaryIDs: []string{"doc-2"},
		PrimaryPatch: map[string]any{"merged_from": []string{"doc-2"}},
	})
	assert.ErrorIs(t, err, domain.ErrMergeConflict)

	doc, err := store.GetDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "doc-3", *doc.MergedInto)
	primary, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.NotContains(t, primary.Metadata, "merged_from")
}

func TestDocumentStore_MergeDocuments_AllOrNothing(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	err := store.MergeDocuments(ctx, driven.MergeRequest{
		PrimaryID:    "doc-1",
		SecondaryIDs: []string{"doc-2", "missing"},
		PrimaryPatch: map[string]any{"merged_from": []string{"doc-2"}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc, err := store.GetDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.False(t, doc.IsMerged())
	primary, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.NotContains(t, primary.Metadata, "merged_from")

	err = store.MergeDocuments(ctx, driven.MergeRequest{PrimaryID: "missing", SecondaryIDs: []string{"doc-2"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			_ = store.SaveDocument(ctx, &domain.Document{ID: id, FileName: id + ".pdf"})
			_, _ = store.GetDocument(ctx, id)
			_, _ = store.ListFilenames(ctx)
		}(i)
	}
	wg.Wait()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 26)
}
