package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// DocumentRef is the lightweight (id, file name) pair used for filename screening.
type DocumentRef struct {
	ID       string
	FileName string
}

// MergeRequest describes an all-or-nothing merge of secondaries into a primary.
type MergeRequest struct {
	// PrimaryID is the document that absorbs the others.
	PrimaryID string

	// SecondaryIDs are marked merged and pointed at PrimaryID.
	SecondaryIDs []string

	// PrimaryPatch is merged into the primary's metadata.
	PrimaryPatch map[string]any

	// MergedAt is recorded on every affected document.
	MergedAt time.Time
}

// DocumentStore persists documents, chunks and their fingerprints.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, including merged ones.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// FindByExactHash returns an active document with the given content digest.
	// Returns domain.ErrNotFound when none exists.
	FindByExactHash(ctx context.Context, hash string) (*domain.Document, error)

	// ListFilenames returns (id, file name) pairs of active documents.
	ListFilenames(ctx context.Context) ([]DocumentRef, error)

	// ListWithMetadata returns active documents with fingerprints and metadata.
	ListWithMetadata(ctx context.Context) ([]domain.Document, error)

	// UpdateStatus sets the lifecycle status and merge back-reference.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, mergedInto *string) error

	// UpdateMetadata merges patch into the document's metadata.
	UpdateMetadata(ctx context.Context, id string, patch map[string]any) error

	// MergeDocuments applies a merge as a single logical operation.
	// Either every secondary transitions to merged or none do. A secondary
	// that is no longer active fails the merge with domain.ErrMergeConflict.
	MergeDocuments(ctx context.Context, req MergeRequest) error
}
