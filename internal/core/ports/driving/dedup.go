package driving

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// DeduplicationService screens candidates against accepted documents.
type DeduplicationService interface {
	// Classify decides how a candidate relates to existing documents.
	// Collaborator failures degrade individual detection methods and are
	// reported in the decision's warnings, never as an error.
	Classify(ctx context.Context, candidate *domain.DocumentCandidate) (*domain.DuplicateDecision, error)

	// Merge folds secondaries into a primary. Secondaries are marked merged,
	// never deleted.
	Merge(ctx context.Context, primaryID string, secondaryIDs []string, reason string) (*domain.MergeResult, error)
}
