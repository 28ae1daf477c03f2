package domain

// SearchMethod identifies an independent retrieval method.
type SearchMethod string

// Retrieval methods.
const (
	// MethodSemantic is vector similarity retrieval.
	MethodSemantic SearchMethod = "semantic"

	// MethodKeyword is lexical retrieval.
	MethodKeyword SearchMethod = "keyword"
)

// ChunkHit is a single scored chunk returned by one retrieval method.
type ChunkHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// DocumentName is the parent document's file name.
	DocumentName string

	// Content is the chunk text.
	Content string

	// PageNumber is the chunk's page, nil for cross-page chunks.
	PageNumber *int

	// Score is the method-specific relevance in [0,1].
	Score float64
}

// HitKey is the stable identity of a chunk across retrieval methods.
type HitKey struct {
	DocumentID string
	ChunkID    string
}

// Key returns the identity of the hit.
func (h ChunkHit) Key() HitKey {
	return HitKey{DocumentID: h.DocumentID, ChunkID: h.ChunkID}
}

// RetrievalHit is a fused, per-chunk search outcome. It is created per
// query and never persisted.
type RetrievalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// DocumentName is the parent document's file name.
	DocumentName string

	// Content is the chunk text.
	Content string

	// PageNumber is the chunk's page, nil for cross-page chunks.
	PageNumber *int

	// MethodScores holds the raw score recorded per method.
	MethodScores map[SearchMethod]float64

	// Methods lists the methods that actually returned this chunk.
	Methods []SearchMethod

	// FusedScore is the combined score after reranking.
	FusedScore float64

	// Highlights contains sentences with matched query terms.
	Highlights []string
}

// Key returns the identity of the hit.
func (h *RetrievalHit) Key() HitKey {
	return HitKey{DocumentID: h.DocumentID, ChunkID: h.ChunkID}
}

// Score returns the raw score for a method, 0 when absent.
func (h *RetrievalHit) Score(m SearchMethod) float64 {
	return h.MethodScores[m]
}

// HasMethod reports whether the given method returned this chunk.
func (h *RetrievalHit) HasMethod(m SearchMethod) bool {
	for _, got := range h.Methods {
		if got == m {
			return true
		}
	}
	return false
}

// SearchFilters maps a facet name to the accepted values.
// An empty filter set accepts everything.
type SearchFilters map[string][]string

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results after fusion.
	Limit int

	// Mode selects which retrieval methods run.
	Mode SearchMode

	// Threshold is the minimum vector similarity for semantic hits.
	Threshold float64

	// DisableExpansion skips query expansion.
	DisableExpansion bool

	// Filters restricts the fused results by facet values.
	Filters SearchFilters

	// Facets enables facet generation on the response.
	Facets bool
}

// SearchResponse is the full outcome of a search call.
type SearchResponse struct {
	// Query is the query as submitted.
	Query string

	// ExpandedQuery is the query after expansion, empty when disabled.
	ExpandedQuery string

	// Mode is the effective mode after degradation.
	Mode SearchMode

	// Results are the fused, filtered, truncated hits.
	Results []RetrievalHit

	// Facets summarises Results, nil when disabled.
	Facets FacetSet

	// Warnings lists retrieval methods that failed.
	Warnings []string
}

// Suggestion is a query suggestion offered while typing.
type Suggestion struct {
	// Text is the suggested query or term.
	Text string

	// Kind is "completion" or "related_term".
	Kind string

	// Category is the source category of the suggestion.
	Category string
}
