package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/fingerprint"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Metadata keys written on ingestion.
const (
	MetaMIMEType        = "mime_type"
	MetaForcedOver      = "forced_over"
	MetaDuplicateAction = "duplicate_action"
)

// IngestService turns uploaded bytes into stored, indexed chunks.
type IngestService struct {
	registry         driven.NormaliserRegistry
	pipeline         driven.PostProcessorPipeline
	dedup            driving.DeduplicationService
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	now              func() time.Time
}

// NewIngestService creates a new ingest service.
// The dedup, vectorIndex and embeddingService parameters are optional (can be nil).
// Without dedup every candidate is accepted; without embeddings chunks are
// stored for keyword search only.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	dedup driving.DeduplicationService,
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		registry:         registry,
		pipeline:         pipeline,
		dedup:            dedup,
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		now:              time.Now,
	}
}

// SupportedMIMETypes lists formats that can be ingested.
func (s *IngestService) SupportedMIMETypes() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.SupportedMIMETypes()
}

// Ingest runs the document processing pipeline for one file.
//
//nolint:gocognit,gocyclo // Pipeline orchestration with sequential steps
func (s *IngestService) Ingest(
	ctx context.Context, fileName string, content []byte, opts driving.IngestOptions,
) (*driving.IngestResult, error) {
	logger.Section("Ingest")

	// 1. VALIDATE
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("ingest: empty file name: %w", domain.ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("ingest %s: empty content: %w", fileName, domain.ErrInvalidInput)
	}
	if s.registry == nil || s.pipeline == nil {
		return nil, fmt.Errorf("ingest %s: %w", fileName, domain.ErrCollaboratorUnavailable)
	}
	if !opts.DryRun && s.docStore == nil {
		return nil, fmt.Errorf("ingest %s: no document store: %w", fileName, domain.ErrCollaboratorUnavailable)
	}
	logger.Debug("File: %s (%d bytes), force=%t, dry-run=%t", fileName, len(content), opts.Force, opts.DryRun)

	// 2. NORMALISE (MIME type is detected from the file name)
	raw := &domain.RawDocument{FileName: fileName, Content: content}
	extracted, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	logger.Debug("Extracted %d pages as %s", extracted.PageCount(), raw.MIMEType)

	// 3. FINGERPRINT AND CLASSIFY
	candidate := fingerprint.NewCandidate(fileName, content, extracted.FullText())
	decision := &domain.DuplicateDecision{Action: domain.ActionProceed}
	if s.dedup != nil {
		decision, err = s.dedup.Classify(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: classify: %w", fileName, err)
		}
	}
	logger.Info("Duplicate classification for %s: %s (confidence %.2f)", fileName, decision.Action, decision.Confidence)

	result := &driving.IngestResult{
		Decision: decision,
		Warnings: append([]string(nil), decision.Warnings...),
	}
	if !decision.Action.AllowsIngest() && !opts.Force {
		logger.Info("Refusing %s: %s", fileName, decision.Action)
		return result, nil
	}

	// 4. BUILD DOCUMENT
	now := s.now().UTC()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		FileName:    fileName,
		Title:       extracted.Title,
		ContentType: raw.MIMEType,
		FileSize:    int64(len(content)),
		PageCount:   extracted.PageCount(),
		Status:      domain.StatusActive,
		ExactHash:   candidate.ExactHash,
		Fingerprint: candidate.Fingerprint,
		Metadata:    documentMetadata(extracted, raw.MIMEType),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !decision.Action.AllowsIngest() {
		doc.Metadata[MetaDuplicateAction] = string(decision.Action)
		if decision.Best != nil {
			doc.Metadata[MetaForcedOver] = decision.Best.Document.ID
		}
	}
	result.Document = doc

	// 5. RUN POST-PROCESSOR PIPELINE (produces Chunks)
	chunks, err := s.pipeline.Process(ctx, doc, extracted)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: post-process: %w", fileName, err)
	}
	result.ChunkCount = len(chunks)
	logger.Debug("Pipeline produced %d chunks", len(chunks))

	if opts.DryRun {
		result.Chunks = chunks
		return result, nil
	}

	// 6. GENERATE EMBEDDINGS (if service available)
	if s.embeddingService != nil && len(chunks) > 0 {
		if warning := s.embedChunks(ctx, chunks); warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	// 7. SAVE TO DOCUMENT STORE
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("ingest %s: save document: %w", fileName, err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		s.rollback(ctx, doc.ID)
		return nil, fmt.Errorf("ingest %s: save chunks: %w", fileName, err)
	}

	// 8. INDEX FOR KEYWORD SEARCH
	if s.searchIndex != nil {
		if err := s.searchIndex.Index(ctx, chunks); err != nil {
			s.rollback(ctx, doc.ID)
			return nil, fmt.Errorf("ingest %s: index chunks: %w", fileName, err)
		}
	}

	// 9. INDEX FOR VECTOR SEARCH (if available)
	if s.vectorIndex != nil && s.embeddingService != nil {
		if err := s.vectorIndex.Add(ctx, chunks); err != nil {
			logger.Warn("Vector indexing failed for %s: %v", fileName, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("vector indexing failed: %v", err))
		}
	}
	result.Stored = true

	// 10. APPLY FORCED REPLACE OR MERGE
	if decision.Best != nil && opts.Force {
		s.resolveForced(ctx, doc, decision, result)
	}

	logger.Info("Stored %s as %s with %d chunks", fileName, doc.ID, len(chunks))
	return result, nil
}

// embedChunks attaches embeddings to chunks. A failure leaves the chunks
// without embeddings and returns a warning; keyword search still works.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) != len(chunks) {
		err = fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))
	}
	if err != nil {
		logger.Warn("Embedding failed, storing without vectors: %v", err)
		return fmt.Sprintf("embedding failed: %v", err)
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return ""
}

// resolveForced applies the recommended action after a forced store.
// A replace removes the old document; a merge folds it into the new one.
func (s *IngestService) resolveForced(
	ctx context.Context, doc *domain.Document, decision *domain.DuplicateDecision, result *driving.IngestResult,
) {
	oldID := decision.Best.Document.ID
	switch decision.Action {
	case domain.ActionReplace:
		if err := removeDocument(ctx, s.docStore, s.searchIndex, s.vectorIndex, oldID); err != nil {
			logger.Warn("Replace of %s failed: %v", oldID, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("replace of %s failed: %v", oldID, err))
			return
		}
		result.Replaced = append(result.Replaced, oldID)
	case domain.ActionMerge:
		if s.dedup == nil {
			return
		}
		if _, err := s.dedup.Merge(ctx, doc.ID, []string{oldID}, DefaultMergeReason); err != nil {
			logger.Warn("Merge of %s failed: %v", oldID, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("merge of %s failed: %v", oldID, err))
			return
		}
		result.Replaced = append(result.Replaced, oldID)
	}
}

// rollback removes a partially stored document.
func (s *IngestService) rollback(ctx context.Context, id string) {
	if err := removeDocument(ctx, s.docStore, s.searchIndex, s.vectorIndex, id); err != nil {
		logger.Warn("Rollback of %s failed: %v", id, err)
	}
}

// documentMetadata copies extractor metadata and records the MIME type.
func documentMetadata(extracted *domain.ExtractedDocument, mimeType string) map[string]any {
	meta := make(map[string]any, len(extracted.Metadata)+1)
	for k, v := range extracted.Metadata {
		meta[k] = v
	}
	meta[MetaMIMEType] = mimeType
	return meta
}
