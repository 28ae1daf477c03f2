package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("save document: missing id: %w", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *doc
	if d.Status == "" {
		d.Status = domain.StatusActive
	}
	d.Metadata = copyMeta(doc.Metadata)
	s.documents[d.ID] = d
	return nil
}

// SaveChunks replaces the chunks of the document they belong to.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.Metadata = copyMeta(doc.Metadata)
	return &doc, nil
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	return append([]domain.Chunk(nil), chunks...), nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(domain.Document) bool { return true }), nil
}

// FindByExactHash returns an active document with the given digest.
func (s *DocumentStore) FindByExactHash(_ context.Context, hash string) (*domain.Document, error) {
	if hash == "" {
		return nil, domain.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.sorted(isActive) {
		if doc.ExactHash == hash {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListFilenames returns (id, file name) pairs of active documents.
func (s *DocumentStore) ListFilenames(_ context.Context) ([]driven.DocumentRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.sorted(isActive)
	refs := make([]driven.DocumentRef, len(docs))
	for i, d := range docs {
		refs[i] = driven.DocumentRef{ID: d.ID, FileName: d.FileName}
	}
	return refs, nil
}

// ListWithMetadata returns active documents.
func (s *DocumentStore) ListWithMetadata(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(isActive), nil
}

// UpdateStatus sets a document's status and merge back-reference.
func (s *DocumentStore) UpdateStatus(
	_ context.Context, id string, status domain.DocumentStatus, mergedInto *string,
) error {
	if !status.IsValid() {
		return fmt.Errorf("update status %q: %w", status, domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.MergedInto = copyString(mergedInto)
	s.documents[id] = doc
	return nil
}

// UpdateMetadata merges patch into a document's metadata.
func (s *DocumentStore) UpdateMetadata(_ context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Metadata = applyPatch(doc.Metadata, patch)
	s.documents[id] = doc
	return nil
}

// MergeDocuments resolves every id before changing anything, so a missing
// document leaves the store untouched.
func (s *DocumentStore) MergeDocuments(_ context.Context, req driven.MergeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	primary, ok := s.documents[req.PrimaryID]
	if !ok {
		return fmt.Errorf("primary %s: %w", req.PrimaryID, domain.ErrNotFound)
	}
	secondaries := make([]domain.Document, 0, len(req.SecondaryIDs))
	for _, id := range req.SecondaryIDs {
		doc, ok := s.documents[id]
		if !ok {
			return fmt.Errorf("secondary %s: %w", id, domain.ErrNotFound)
		}
		if doc.Status != domain.StatusActive {
			return fmt.Errorf("secondary %s is not active: %w", id, domain.ErrMergeConflict)
		}
		secondaries = append(secondaries, doc)
	}

	primary.Metadata = applyPatch(primary.Metadata, req.PrimaryPatch)
	primary.UpdatedAt = req.MergedAt
	s.documents[primary.ID] = primary

	into := req.PrimaryID
	for _, doc := range secondaries {
		doc.Status = domain.StatusMerged
		doc.MergedInto = &into
		doc.Metadata = applyPatch(doc.Metadata, map[string]any{
			"merged_into": into,
			"merge_date":  req.MergedAt.Format(time.RFC3339),
		})
		doc.UpdatedAt = req.MergedAt
		s.documents[doc.ID] = doc
	}
	return nil
}

// isMerged reports whether a document exists and is merged.
func (s *DocumentStore) isMerged(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return ok && doc.IsMerged()
}

// fileName returns a document's file name, empty when unknown.
func (s *DocumentStore) fileName(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[id].FileName
}

// sorted returns matching documents by creation time then ID.
// Callers must hold the lock.
func (s *DocumentStore) sorted(keep func(domain.Document) bool) []domain.Document {
	out := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if keep(doc) {
			doc.Metadata = copyMeta(doc.Metadata)
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func isActive(d domain.Document) bool {
	return !d.IsMerged()
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func applyPatch(m, patch map[string]any) map[string]any {
	out := copyMeta(m)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
