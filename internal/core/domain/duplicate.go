package domain

import "time"

// MatchType identifies the detection method that produced a match.
type MatchType string

// Detection methods.
const (
	// MatchExactContent is a byte-identical content match.
	MatchExactContent MatchType = "exact_content"

	// MatchFilename is a normalised filename similarity match.
	MatchFilename MatchType = "filename"

	// MatchContentHash is a structural fingerprint match.
	MatchContentHash MatchType = "content_hash"

	// MatchSemantic is an embedding similarity match.
	MatchSemantic MatchType = "semantic"
)

// Evidence ranks match types for tie-breaking. More objective evidence
// ranks higher: exact content, then structural, then semantic, then filename.
func (m MatchType) Evidence() int {
	switch m {
	case MatchExactContent:
		return 4
	case MatchContentHash:
		return 3
	case MatchSemantic:
		return 2
	case MatchFilename:
		return 1
	default:
		return 0
	}
}

// String returns the string representation.
func (m MatchType) String() string {
	return string(m)
}

// DuplicateAction is the recommended handling for a candidate document.
type DuplicateAction string

// Available actions.
const (
	ActionProceed DuplicateAction = "proceed"
	ActionSkip    DuplicateAction = "skip"
	ActionReplace DuplicateAction = "replace"
	ActionMerge   DuplicateAction = "merge"
	ActionReview  DuplicateAction = "review"
)

// AllowsIngest reports whether the candidate may be stored as a new document.
func (a DuplicateAction) AllowsIngest() bool {
	return a == ActionProceed
}

// MatchCandidate associates an existing document with one detection
// method's similarity score.
type MatchCandidate struct {
	// Document is the existing document that matched.
	Document Document

	// MatchType is the detection method.
	MatchType MatchType

	// Score is the similarity in [0,1].
	Score float64

	// Reason explains the match in human terms.
	Reason string
}

// DuplicateDecision is the outcome of classifying a candidate.
type DuplicateDecision struct {
	// IsDuplicate is true when the best match reached the duplicate threshold.
	IsDuplicate bool

	// Confidence is the best match score, 0 when not a duplicate.
	Confidence float64

	// MatchType is the method behind the best match, empty when not a duplicate.
	MatchType MatchType

	// Best is the strongest match, nil when not a duplicate.
	Best *MatchCandidate

	// Similar lists consolidated matches sorted by descending score.
	Similar []MatchCandidate

	// Action is the recommended handling.
	Action DuplicateAction

	// Recommendations are advisory, human-readable notes.
	Recommendations []string

	// Warnings lists detection methods that could not run.
	Warnings []string
}

// MergeResult describes a completed merge.
type MergeResult struct {
	// PrimaryID is the document that absorbed the others.
	PrimaryID string

	// MergedIDs are the secondary documents now marked merged.
	MergedIDs []string

	// OriginalFileNames are the file names of the merged documents.
	OriginalFileNames []string

	// MergedAt is when the merge was recorded.
	MergedAt time.Time
}

// TotalAffected returns the number of documents touched by the merge.
func (r *MergeResult) TotalAffected() int {
	return len(r.MergedIDs) + 1
}
