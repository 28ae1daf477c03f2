// Package domain defines the core business entities for docsift.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An accepted document record with its fingerprints
//   - Chunk: A sentence-bounded unit of document text prepared for retrieval
//   - DocumentCandidate: A document proposed for ingestion, not yet accepted
//   - DuplicateDecision: The outcome of duplicate classification
//   - RetrievalHit: One fused, per-chunk search outcome
//   - FacetBucket: A categorical count over a result set
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
