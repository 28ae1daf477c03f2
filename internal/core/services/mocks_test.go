package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docsift/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

var errBackend = errors.New("backend down")

// mockEmbedding implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector; everything else gets fallback.
type mockEmbedding struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    []string
}

var _ driven.EmbeddingService = (*mockEmbedding)(nil)

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return len(m.fallback) }

func (m *mockEmbedding) ModelName() string { return "mock-embed" }

func (m *mockEmbedding) Ping(_ context.Context) error { return m.err }

func (m *mockEmbedding) Close() error { return nil }

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// failingStore wraps a memory store and fails selected listing calls.
type failingStore struct {
	*memory.DocumentStore
	failExact     bool
	failFilenames bool
	failMetadata  bool
	failMerge     bool
	failChunks    bool
}

func (f *failingStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.failChunks {
		return errBackend
	}
	return f.DocumentStore.SaveChunks(ctx, chunks)
}

func (f *failingStore) FindByExactHash(ctx context.Context, hash string) (*domain.Document, error) {
	if f.failExact {
		return nil, errBackend
	}
	return f.DocumentStore.FindByExactHash(ctx, hash)
}

func (f *failingStore) ListFilenames(ctx context.Context) ([]driven.DocumentRef, error) {
	if f.failFilenames {
		return nil, errBackend
	}
	return f.DocumentStore.ListFilenames(ctx)
}

func (f *failingStore) ListWithMetadata(ctx context.Context) ([]domain.Document, error) {
	if f.failMetadata {
		return nil, errBackend
	}
	return f.DocumentStore.ListWithMetadata(ctx)
}

func (f *failingStore) MergeDocuments(ctx context.Context, req driven.MergeRequest) error {
	if f.failMerge {
		return errBackend
	}
	return f.DocumentStore.MergeDocuments(ctx, req)
}

// failingSearch implements driven.SearchEngine and always fails.
type failingSearch struct{}

func (failingSearch) Index(context.Context, []domain.Chunk) error { return errBackend }
func (failingSearch) Delete(context.Context, string) error        { return errBackend }
func (failingSearch) Search(context.Context, string, int) ([]domain.ChunkHit, error) {
	return nil, errBackend
}

// blockingVector implements driven.VectorIndex and blocks until the
// context is cancelled.
type blockingVector struct{}

func (blockingVector) Add(context.Context, []domain.Chunk) error { return nil }
func (blockingVector) Delete(context.Context, string) error      { return nil }
func (blockingVector) Search(ctx context.Context, _ []float32, _ int, _ float64) ([]domain.ChunkHit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stubDedup returns a fixed decision and delegates merges.
type stubDedup struct {
	decision *domain.DuplicateDecision
	merger   *DeduplicationService
}

func (s *stubDedup) Classify(context.Context, *domain.DocumentCandidate) (*domain.DuplicateDecision, error) {
	d := *s.decision
	return &d, nil
}

func (s *stubDedup) Merge(
	ctx context.Context, primaryID string, secondaryIDs []string, reason string,
) (*domain.MergeResult, error) {
	return s.merger.Merge(ctx, primaryID, secondaryIDs, reason)
}
