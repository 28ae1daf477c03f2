package driving

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// IngestOptions configures a single ingestion.
type IngestOptions struct {
	// Force stores the document even when classified as a duplicate.
	Force bool

	// DryRun classifies and chunks without persisting anything.
	DryRun bool
}

// IngestResult describes the outcome of an ingestion.
type IngestResult struct {
	// Document is the accepted document, nil when ingestion was refused.
	Document *domain.Document

	// Decision is the duplicate classification of the candidate.
	Decision *domain.DuplicateDecision

	// ChunkCount is the number of chunks produced.
	ChunkCount int

	// Chunks holds the produced chunks on a dry run, for inspection.
	Chunks []domain.Chunk

	// Stored is true when the document and chunks were persisted.
	Stored bool

	// Replaced lists documents removed or merged because the candidate
	// was forced in over them.
	Replaced []string

	// Warnings lists degraded steps, such as missing embeddings.
	Warnings []string
}

// IngestService accepts new documents into the retrieval corpus.
type IngestService interface {
	// Ingest extracts, classifies, chunks and stores a document.
	// A duplicate is reported through the result, not as an error.
	Ingest(ctx context.Context, fileName string, content []byte, opts IngestOptions) (*IngestResult, error)

	// SupportedMIMETypes lists formats that can be ingested.
	SupportedMIMETypes() []string
}
