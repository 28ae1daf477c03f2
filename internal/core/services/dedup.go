package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/fingerprint"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure DeduplicationService implements the interface.
var _ driving.DeduplicationService = (*DeduplicationService)(nil)

const (
	// perMethodLimit caps candidates from filename and structural screening.
	perMethodLimit = 10

	// semanticDocLimit caps document-level semantic candidates.
	semanticDocLimit = 5

	// similarDuplicateLimit and similarAdvisoryLimit cap Similar.
	similarDuplicateLimit = 5
	similarAdvisoryLimit  = 3

	// DefaultMergeReason is recorded when Merge gets no reason.
	DefaultMergeReason = "duplicate_detection"
)

// Metadata keys written on merge.
const (
	MetaMergedFrom        = "merged_from"
	MetaMergeDate         = "merge_date"
	MetaOriginalFilenames = "original_filenames"
	MetaMergeReason       = "merge_reason"
	MetaTotalMerged       = "total_merged_documents"
	MetaMergedInto        = "merged_into"
)

// errMethodSkipped marks a detection method that did not run because its
// collaborator is not configured. It is not a failure.
var errMethodSkipped = errors.New("method skipped")

// DeduplicationService classifies candidates against accepted documents
// and folds duplicates together.
type DeduplicationService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedding   driven.EmbeddingService
	cfg         domain.DedupSettings
	now         func() time.Time
}

// NewDeduplicationService creates a deduplication service.
// The vectorIndex and embedding parameters are optional (can be nil); without
// them semantic matching is skipped.
func NewDeduplicationService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedding driven.EmbeddingService,
	cfg domain.DedupSettings,
) *DeduplicationService {
	return &DeduplicationService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedding:   embedding,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SetClock overrides the time source used for merge timestamps.
func (s *DeduplicationService) SetClock(now func() time.Time) {
	s.now = now
}

// Classify decides how a candidate relates to existing documents.
func (s *DeduplicationService) Classify(
	ctx context.Context, c *domain.DocumentCandidate,
) (*domain.DuplicateDecision, error) {
	if c == nil {
		return nil, fmt.Errorf("classify: nil candidate: %w", domain.ErrInvalidInput)
	}
	logger.Section("Duplicate Detection")
	logger.Debug("Candidate: %s (%d bytes)", c.FileName, len(c.RawBytes))

	var warnings []string
	attempted, failed := 0, 0
	record := func(method string, err error) {
		if errors.Is(err, errMethodSkipped) {
			logger.Debug("%s matching skipped", method)
			return
		}
		attempted++
		if err != nil {
			failed++
			msg := fmt.Sprintf("%s matching unavailable: %v", method, err)
			logger.Warn("%s", msg)
			warnings = append(warnings, msg)
		}
	}

	exact, err := s.exactMatch(ctx, c)
	record("exact content", err)
	if exact != nil {
		logger.Info("Exact content match: %s", exact.Document.FileName)
		return &domain.DuplicateDecision{
			IsDuplicate: true,
			Confidence:  1.0,
			MatchType:   domain.MatchExactContent,
			Best:        exact,
			Similar:     []domain.MatchCandidate{*exact},
			Action:      domain.ActionSkip,
			Recommendations: []string{
				fmt.Sprintf("Identical document already exists: %s", exact.Document.FileName),
				"Recommend skipping upload to save storage and processing costs",
			},
			Warnings: warnings,
		}, nil
	}

	byName, err := s.filenameMatches(ctx, c)
	record("filename", err)
	byStructure, err := s.structuralMatches(ctx, c)
	record("structural", err)
	bySemantics, err := s.semanticMatches(ctx, c)
	record("semantic", err)

	all := consolidate(byName, byStructure, bySemantics)
	logger.Debug("Consolidated candidates: %d", len(all))

	decision := &domain.DuplicateDecision{Action: domain.ActionProceed, Warnings: warnings}
	if attempted > 0 && failed == attempted {
		logger.Warn("All duplicate detection methods failed for %s", c.FileName)
		decision.Warnings = append(decision.Warnings, "all duplicate detection methods failed")
		decision.Recommendations = []string{"Duplicate detection failed - proceeding with upload"}
		return decision, nil
	}
	if len(all) == 0 {
		return decision, nil
	}

	best := all[0]
	if best.Score < s.cfg.DuplicateThreshold {
		decision.Similar = truncateMatches(all, similarAdvisoryLimit)
		decision.Recommendations = []string{
			"Similar documents found - consider organizing in same category",
			"Review existing content before uploading to avoid redundancy",
		}
		return decision, nil
	}

	decision.IsDuplicate = true
	decision.Confidence = best.Score
	decision.MatchType = best.MatchType
	decision.Best = &best
	decision.Similar = truncateMatches(all, similarDuplicateLimit)
	decision.Action = s.action(best)
	decision.Recommendations = s.recommendations(best, len(all))
	logger.Info("Duplicate of %s (%s, %.2f): %s", best.Document.FileName, best.MatchType, best.Score, decision.Action)
	return decision, nil
}

func (s *DeduplicationService) exactMatch(
	ctx context.Context, c *domain.DocumentCandidate,
) (*domain.MatchCandidate, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	if c.ExactHash == "" {
		return nil, errMethodSkipped
	}
	doc, err := s.docStore.FindByExactHash(ctx, c.ExactHash)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.MatchCandidate{
		Document:  *doc,
		MatchType: domain.MatchExactContent,
		Score:     1.0,
		Reason:    "Identical file content",
	}, nil
}

func (s *DeduplicationService) filenameMatches(
	ctx context.Context, c *domain.DocumentCandidate,
) ([]domain.MatchCandidate, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	refs, err := s.docStore.ListFilenames(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.MatchCandidate
	for _, ref := range refs {
		score := fingerprint.FilenameSimilarity(c.FileName, ref.FileName)
		if score < s.cfg.FilenameFloor {
			continue
		}
		out = append(out, domain.MatchCandidate{
			Document:  domain.Document{ID: ref.ID, FileName: ref.FileName, Status: domain.StatusActive},
			MatchType: domain.MatchFilename,
			Score:     score,
			Reason:    fingerprint.ExplainFilenameSimilarity(c.FileName, ref.FileName),
		})
	}
	sortMatches(out)
	return truncateMatches(out, perMethodLimit), nil
}

func (s *DeduplicationService) structuralMatches(
	ctx context.Context, c *domain.DocumentCandidate,
) ([]domain.MatchCandidate, error) {
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	if c.Fingerprint.IsZero() {
		return nil, errMethodSkipped
	}
	docs, err := s.docStore.ListWithMetadata(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.MatchCandidate
	for i := range docs {
		score := fingerprint.CompareStructural(c.Fingerprint, docs[i].Fingerprint)
		if score < s.cfg.StructuralFloor {
			continue
		}
		out = append(out, domain.MatchCandidate{
			Document:  docs[i],
			MatchType: domain.MatchContentHash,
			Score:     score,
			Reason:    fmt.Sprintf("Content fingerprint similarity: %.2f%%", score*100),
		})
	}
	sortMatches(out)
	return truncateMatches(out, perMethodLimit), nil
}

func (s *DeduplicationService) semanticMatches(
	ctx context.Context, c *domain.DocumentCandidate,
) ([]domain.MatchCandidate, error) {
	if !c.HasText() || s.vectorIndex == nil {
		return nil, errMethodSkipped
	}
	if s.docStore == nil {
		return nil, domain.ErrCollaboratorUnavailable
	}
	if c.SemanticVector == nil {
		if s.embedding == nil {
			return nil, errMethodSkipped
		}
		vec, err := s.embedding.Embed(ctx, sample(c.ExtractedText, s.cfg.SemanticSampleChars))
		if err != nil {
			return nil, fmt.Errorf("embed candidate: %w", err)
		}
		c.SemanticVector = vec
	}

	hits, err := s.vectorIndex.Search(ctx, c.SemanticVector, perMethodLimit, s.cfg.SemanticFloor)
	if err != nil {
		return nil, err
	}

	// Chunk hits are grouped to one score per document.
	best := make(map[string]float64)
	for _, h := range hits {
		if h.Score > best[h.DocumentID] {
			best[h.DocumentID] = h.Score
		}
	}

	out := make([]domain.MatchCandidate, 0, len(best))
	for id, score := range best {
		doc, err := s.docStore.GetDocument(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if doc.IsMerged() {
			continue
		}
		out = append(out, domain.MatchCandidate{
			Document:  *doc,
			MatchType: domain.MatchSemantic,
			Score:     score,
			Reason:    fmt.Sprintf("Semantic content similarity: %.2f%%", score*100),
		})
	}
	sortMatches(out)
	return truncateMatches(out, semanticDocLimit), nil
}

// action maps a duplicate-level score to a recommended handling.
func (s *DeduplicationService) action(best domain.MatchCandidate) domain.DuplicateAction {
	switch {
	case best.Score >= s.cfg.SkipThreshold:
		return domain.ActionSkip
	case best.Score >= s.cfg.ReplaceThreshold:
		if best.MatchType == domain.MatchSemantic {
			return domain.ActionMerge
		}
		return domain.ActionReplace
	case best.Score >= s.cfg.DuplicateThreshold:
		return domain.ActionReview
	default:
		return domain.ActionProceed
	}
}

func (s *DeduplicationService) recommendations(best domain.MatchCandidate, total int) []string {
	var recs []string
	name := best.Document.FileName

	switch {
	case best.Score >= s.cfg.SkipThreshold:
		recs = append(recs,
			fmt.Sprintf("Near-identical document found: %s", name),
			"Recommend skipping upload to save storage costs")
	case best.Score >= s.cfg.ReplaceThreshold:
		recs = append(recs, fmt.Sprintf("Very similar document exists: %s", name))
		switch best.MatchType {
		case domain.MatchFilename:
			recs = append(recs, "This may be an updated version - consider replacing the old document")
		case domain.MatchSemantic:
			recs = append(recs, "Similar content detected - review for potential consolidation")
		}
	default:
		recs = append(recs,
			fmt.Sprintf("Similar document found: %s", name),
			"Manual review recommended before uploading")
	}

	if total > 1 {
		recs = append(recs,
			fmt.Sprintf("Found %d similar documents total", total),
			"Consider organizing related documents in collections")
	}
	return recs
}

// consolidate keeps one candidate per document: the highest score, with
// ties going to the more objective evidence. The result is sorted.
func consolidate(lists ...[]domain.MatchCandidate) []domain.MatchCandidate {
	byID := make(map[string]domain.MatchCandidate)
	for _, list := range lists {
		for _, m := range list {
			existing, ok := byID[m.Document.ID]
			if !ok || outranks(m, existing) {
				byID[m.Document.ID] = m
			}
		}
	}

	out := make([]domain.MatchCandidate, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	sortMatches(out)
	return out
}

func outranks(a, b domain.MatchCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.MatchType.Evidence() > b.MatchType.Evidence()
}

// sortMatches orders by score, then evidence, then document ID.
func sortMatches(ms []domain.MatchCandidate) {
	sort.SliceStable(ms, func(i, j int) bool {
		if outranks(ms[i], ms[j]) {
			return true
		}
		if outranks(ms[j], ms[i]) {
			return false
		}
		return ms[i].Document.ID < ms[j].Document.ID
	})
}

func truncateMatches(ms []domain.MatchCandidate, n int) []domain.MatchCandidate {
	if len(ms) > n {
		return ms[:n]
	}
	return ms
}

// sample returns at most n runes of text.
func sample(text string, n int) string {
	if n <= 0 {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

// Merge folds secondaries into a primary. Every id is resolved before
// anything is written; the store applies the change all-or-nothing.
func (s *DeduplicationService) Merge(
	ctx context.Context, primaryID string, secondaryIDs []string, reason string,
) (*domain.MergeResult, error) {
	primaryID = strings.TrimSpace(primaryID)
	if primaryID == "" {
		return nil, fmt.Errorf("merge: empty primary id: %w", domain.ErrInvalidInput)
	}
	if len(secondaryIDs) == 0 {
		return nil, fmt.Errorf("merge: no secondary ids: %w", domain.ErrInvalidInput)
	}
	if s.docStore == nil {
		return nil, fmt.Errorf("merge: %w", domain.ErrCollaboratorUnavailable)
	}
	if reason == "" {
		reason = DefaultMergeReason
	}

	primary, err := s.docStore.GetDocument(ctx, primaryID)
	if err != nil {
		return nil, fmt.Errorf("merge: primary %s: %w", primaryID, err)
	}
	if primary.IsMerged() {
		return nil, fmt.Errorf("merge: primary %s is already merged: %w", primaryID, domain.ErrMergeConflict)
	}

	seen := make(map[string]struct{}, len(secondaryIDs))
	ids := make([]string, 0, len(secondaryIDs))
	names := make([]string, 0, len(secondaryIDs))
	for _, id := range secondaryIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("merge: empty secondary id: %w", domain.ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if id == primaryID {
			return nil, fmt.Errorf("merge: %s cannot merge into itself: %w", id, domain.ErrMergeConflict)
		}
		doc, err := s.docStore.GetDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("merge: secondary %s: %w", id, err)
		}
		if doc.IsMerged() {
			return nil, fmt.Errorf("merge: %s is already merged: %w", id, domain.ErrMergeConflict)
		}
		ids = append(ids, id)
		names = append(names, doc.FileName)
	}

	mergedAt := s.now().UTC()
	req := driven.MergeRequest{
		PrimaryID:    primaryID,
		SecondaryIDs: ids,
		MergedAt:     mergedAt,
		PrimaryPatch: map[string]any{
			MetaMergedFrom:        ids,
			MetaMergeDate:         mergedAt.Format(time.RFC3339),
			MetaOriginalFilenames: names,
			MetaMergeReason:       reason,
			MetaTotalMerged:       len(ids) + 1,
		},
	}
	if err := s.docStore.MergeDocuments(ctx, req); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	logger.Info("Merged %d documents into %s", len(ids), primaryID)
	return &domain.MergeResult{
		PrimaryID:         primaryID,
		MergedIDs:         ids,
		OriginalFileNames: names,
		MergedAt:          mergedAt,
	}, nil
}
