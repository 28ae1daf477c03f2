package domain

import "time"

// DocumentStatus tracks the lifecycle of an accepted document.
type DocumentStatus string

const (
	// StatusActive marks a document that participates in retrieval.
	StatusActive DocumentStatus = "active"

	// StatusMerged marks a document folded into another one.
	// Merged documents are kept for audit lineage and point at their
	// primary through MergedInto.
	StatusMerged DocumentStatus = "merged"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	return s == StatusActive || s == StatusMerged
}

// Document represents an accepted document with the fingerprints
// persisted at ingestion time. The duplicate classifier reads it as the
// "existing document" side of every comparison.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// FileName is the original file name as uploaded.
	FileName string

	// Title is the human-readable title.
	Title string

	// ContentType is the MIME type of the original file.
	ContentType string

	// FileSize is the size of the original file in bytes.
	FileSize int64

	// PageCount is the number of non-empty pages or slides.
	PageCount int

	// Status is the lifecycle state.
	Status DocumentStatus

	// MergedInto references the primary document when Status is merged.
	MergedInto *string

	// ExactHash is the digest of the full byte content.
	ExactHash string

	// Fingerprint is the structural fingerprint of the byte content.
	Fingerprint StructuralFingerprint

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// IsMerged reports whether the document has been folded into another.
func (d *Document) IsMerged() bool {
	return d.Status == StatusMerged
}

// Chunk represents a searchable unit within a document.
// Documents are split into sentence-bounded chunks for granular search results.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Index is the ordinal position within the document's emitted chunk sequence.
	Index int

	// PageNumber is the source page, nil for chunks spanning the whole document.
	PageNumber *int

	// CharCount is the number of characters in Content.
	CharCount int

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int

	// SentenceCount is the number of sentences in Content.
	SentenceCount int

	// OverlapSentences is how many leading sentences were carried over
	// from the previous chunk.
	OverlapSentences int

	// ContentHash is a deterministic digest of Content.
	ContentHash string

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// PageRef returns a pointer to a copy of page, for use as Chunk.PageNumber.
func PageRef(page int) *int {
	return &page
}
