package driving

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search runs the configured retrieval methods, fuses their hits and
	// returns a single ranked list. Facets are generated when opts.Facets is set.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// FacetedSearch searches, applies opts.Filters to the fused results and
	// regenerates facets on the reduced set.
	FacetedSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// Suggest returns query suggestions for a partial query.
	Suggest(partial string) []domain.Suggestion
}

// QueryStatsService exposes recent search activity.
type QueryStatsService interface {
	// Snapshot summarises the retained query log.
	Snapshot() domain.QueryStatsSnapshot

	// Reset clears all recorded queries.
	Reset(ctx context.Context)
}
