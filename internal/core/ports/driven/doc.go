// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document, chunk and fingerprint persistence
//   - SearchEngine: Lexical search over chunks
//   - Normaliser: Extracts per-page text from raw bytes
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PostProcessorPipeline: Turns extracted text into chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Vector similarity search. Only used when EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, semantic matching
//     and semantic retrieval are skipped.
//   - QueryLogStore: Persists search activity so statistics survive restarts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
