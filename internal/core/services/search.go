package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/logger"
	"github.com/custodia-labs/docsift/internal/retrieval"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// popularSuggestionPool is how many popular queries feed suggestions.
const popularSuggestionPool = 20

// methodResult is the outcome of one retrieval method.
type methodResult struct {
	hits []domain.ChunkHit
	err  error
	ran  bool
}

// SearchService runs lexical and semantic retrieval and fuses the results.
type SearchService struct {
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	stats            *QueryStats
	search           domain.SearchSettings
	fusion           domain.FusionWeights
}

// NewSearchService creates a new search service.
// The vectorIndex and embeddingService parameters are optional (can be nil);
// without them searches degrade to keyword only.
func NewSearchService(
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.Settings,
) *SearchService {
	return &SearchService{
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		search:           settings.Search,
		fusion:           settings.Fusion,
	}
}

// SetQueryStats sets the query log that records every search.
func (s *SearchService) SetQueryStats(stats *QueryStats) {
	s.stats = stats
}

// Search runs the requested retrieval methods, fuses their hits, applies
// filters and truncates to the limit.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.SearchResponse{Results: []domain.RetrievalHit{}}, nil
	}
	if err := retrieval.ValidateFilters(opts.Filters); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	started := time.Now()
	resp, err := s.run(ctx, query, opts)
	if s.stats != nil {
		count := 0
		if resp != nil {
			count = len(resp.Results)
		}
		s.stats.Record(ctx, query, count, time.Since(started), err != nil)
	}
	return resp, err
}

// FacetedSearch searches with the selected facet values as filters and
// generates facets on the reduced result set.
func (s *SearchService) FacetedSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	opts.Facets = true
	return s.Search(ctx, query, opts)
}

// Suggest returns completions and related terms for a partial query.
func (s *SearchService) Suggest(partial string) []domain.Suggestion {
	var popular []string
	if s.stats != nil {
		popular = s.stats.PopularQueries(popularSuggestionPool)
	}
	return retrieval.Suggest(partial, popular)
}

func (s *SearchService) run(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.search.MaxResults
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = s.search.SimilarityThreshold
	}

	// Filtering happens after fusion, so fetch more when filters are set.
	fetch := limit
	if len(opts.Filters) > 0 {
		fetch = limit * 3
	}
	logger.Debug("Limit: %d, fetch per method: %d, threshold: %.2f", limit, fetch, threshold)

	mode, warnings, err := s.effectiveMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	logger.Info("Effective search mode: %s", mode.Description())

	resp := &domain.SearchResponse{Query: query, Mode: mode, Warnings: warnings}
	retrievalQuery := query
	if s.search.QueryExpansion && !opts.DisableExpansion {
		resp.ExpandedQuery = retrieval.ExpandQuery(query)
		retrievalQuery = resp.ExpandedQuery
		logger.Debug("Expanded query: %q", retrievalQuery)
	}

	if s.search.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.search.Timeout)
		defer cancel()
	}

	var semantic, keyword methodResult
	var wg sync.WaitGroup
	if mode.RequiresEmbedding() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semantic.hits, semantic.err = s.semanticSearch(ctx, retrievalQuery, fetch, threshold)
			semantic.ran = true
		}()
	}
	if mode.UsesKeyword() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keyword.hits, keyword.err = s.keywordSearch(ctx, retrievalQuery, fetch)
			keyword.ran = true
		}()
	}
	wg.Wait()

	if semantic.err != nil {
		logger.Warn("Semantic search failed: %v", semantic.err)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("semantic search failed: %v", semantic.err))
	}
	if keyword.err != nil {
		logger.Warn("Keyword search failed: %v", keyword.err)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("keyword search failed: %v", keyword.err))
	}
	if failedAll(semantic, keyword) {
		return nil, fmt.Errorf("search: %w: %w", domain.ErrSearchUnavailable,
			errors.Join(semantic.err, keyword.err))
	}
	logger.Debug("Raw hits: semantic=%d keyword=%d", len(semantic.hits), len(keyword.hits))

	fused := retrieval.Rerank(retrieval.Fuse(semantic.hits, keyword.hits), s.fusion)
	fused = retrieval.ApplyFilters(fused, opts.Filters)
	results := retrieval.Truncate(fused, limit)
	for i := range results {
		results[i].Highlights = retrieval.Highlights(results[i].Content, query)
	}
	resp.Results = results
	if opts.Facets {
		resp.Facets = retrieval.GenerateFacets(results)
	}

	logger.Info("Search returned %d results", len(results))
	return resp, nil
}

// effectiveMode picks the mode to run given which collaborators exist.
func (s *SearchService) effectiveMode(requested domain.SearchMode) (domain.SearchMode, []string, error) {
	if requested == "" {
		requested = s.search.Mode
	}
	if !requested.IsValid() {
		return "", nil, fmt.Errorf("search mode %q: %w", requested, domain.ErrInvalidInput)
	}

	canSemantic := s.vectorIndex != nil && s.embeddingService != nil
	canKeyword := s.searchIndex != nil
	logger.Debug("Services available: keyword=%t, semantic=%t", canKeyword, canSemantic)

	switch {
	case !canSemantic && !canKeyword:
		return "", nil, fmt.Errorf("search: %w", domain.ErrSearchUnavailable)
	case requested == domain.SearchModeHybrid && canSemantic && canKeyword:
		return domain.SearchModeHybrid, nil, nil
	case requested == domain.SearchModeHybrid && canKeyword:
		logger.Debug("Hybrid search degraded to keyword: no embeddings")
		return domain.SearchModeKeyword, nil, nil
	case requested == domain.SearchModeHybrid:
		return domain.SearchModeSemantic, nil, nil
	case requested == domain.SearchModeSemantic && !canSemantic:
		return domain.SearchModeKeyword, []string{"semantic search unavailable, using keyword search"}, nil
	case requested == domain.SearchModeKeyword && !canKeyword:
		return domain.SearchModeSemantic, []string{"keyword search unavailable, using semantic search"}, nil
	default:
		return requested, nil, nil
	}
}

func (s *SearchService) keywordSearch(ctx context.Context, query string, limit int) ([]domain.ChunkHit, error) {
	hits, err := s.searchIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return hits, nil
}

func (s *SearchService) semanticSearch(
	ctx context.Context, query string, limit int, threshold float64,
) ([]domain.ChunkHit, error) {
	vec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectorIndex.Search(ctx, vec, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// failedAll reports whether every method that ran returned an error.
func failedAll(results ...methodResult) bool {
	ran := 0
	for _, r := range results {
		if !r.ran {
			continue
		}
		ran++
		if r.err == nil {
			return false
		}
	}
	return ran > 0
}
