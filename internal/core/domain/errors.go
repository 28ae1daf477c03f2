package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a malformed or empty required field.
	// It is fatal to the single call and reported to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file format with no extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCollaboratorUnavailable indicates a storage or embedding call
	// failed or timed out. Detection methods absorb it and degrade to
	// "no candidates from this method".
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic matching and vector search are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the lexical search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector search is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDuplicate indicates ingestion was refused by duplicate classification.
	ErrDuplicate = errors.New("duplicate document")

	// ErrMergeConflict indicates a merge referenced a document that cannot
	// take part, such as the primary itself or an already merged document.
	ErrMergeConflict = errors.New("merge conflict")
)
