package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// DocumentService manages accepted documents.
type DocumentService interface {
	// List returns all documents, including merged ones.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the text of all page chunks in order.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetDetails returns metadata for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document, its chunks and its index entries.
	Delete(ctx context.Context, documentID string) error
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// FileName is the original file name.
	FileName string

	// Title is the document title.
	Title string

	// Status is the lifecycle state.
	Status domain.DocumentStatus

	// MergedInto is the primary document ID for merged documents.
	MergedInto string

	// PageCount is the number of pages.
	PageCount int

	// ChunkCount is the number of chunks.
	ChunkCount int

	// FileSize is the original size in bytes.
	FileSize int64

	// CreatedAt is when the document was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
