package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages accepted documents.
type DocumentService struct {
	docStore    driven.DocumentStore
	searchIndex driven.SearchEngine
	vectorIndex driven.VectorIndex
}

// NewDocumentService creates a new document service.
// The searchIndex and vectorIndex parameters are optional (can be nil).
func NewDocumentService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		searchIndex: searchIndex,
		vectorIndex: vectorIndex,
	}
}

// List returns all documents, including merged ones.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent returns the text of the page chunks in index order.
// Cross-page chunks repeat page text and are left out.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	if s.docStore == nil {
		return "", domain.ErrCollaboratorUnavailable
	}

	// Verify document exists
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return "", err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return "", err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})

	hasPages := false
	for _, c := range chunks {
		if c.PageNumber != nil {
			hasPages = true
			break
		}
	}

	var builder strings.Builder
	for _, chunk := range chunks {
		if hasPages && chunk.PageNumber == nil {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(chunk.Content)
	}

	return builder.String(), nil
}

// GetDetails returns metadata for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	chunkCount := 0
	if err == nil {
		chunkCount = len(chunks)
	}

	// Flatten metadata to string map
	metadata := make(map[string]string)
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	details := &driving.DocumentDetails{
		ID:         doc.ID,
		FileName:   doc.FileName,
		Title:      doc.Title,
		Status:     doc.Status,
		PageCount:  doc.PageCount,
		ChunkCount: chunkCount,
		FileSize:   doc.FileSize,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		Metadata:   metadata,
	}
	if doc.MergedInto != nil {
		details.MergedInto = *doc.MergedInto
	}
	return details, nil
}

// Delete removes a document, its chunks and its index entries.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.docStore == nil {
		return domain.ErrCollaboratorUnavailable
	}
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	return removeDocument(ctx, s.docStore, s.searchIndex, s.vectorIndex, documentID)
}

// removeDocument deletes index entries before the stored document.
// Index failures are logged; the store deletion decides the outcome.
func removeDocument(
	ctx context.Context,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	id string,
) error {
	if vectorIndex != nil {
		if err := vectorIndex.Delete(ctx, id); err != nil {
			logger.Debug("Failed to delete vectors of %s: %v", id, err)
		}
	}
	if searchIndex != nil {
		if err := searchIndex.Delete(ctx, id); err != nil {
			logger.Debug("Failed to delete search index of %s: %v", id, err)
		}
	}
	if err := docStore.DeleteDocument(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
