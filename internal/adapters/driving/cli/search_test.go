package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

func sampleResponse(query string) *domain.SearchResponse {
	page := 3
	return &domain.SearchResponse{
		Query:         query,
		ExpandedQuery: query + " q2",
		Mode:          domain.SearchModeHybrid,
		Results: []domain.RetrievalHit{
			{
				ChunkID:      "c1",
				DocumentID:   "d1",
				DocumentName: "report.pdf",
				Content:      "Revenue grew in the second quarter.",
				PageNumber:   &page,
				MethodScores: map[domain.SearchMethod]float64{
					domain.MethodSemantic: 0.8,
					domain.MethodKeyword:  0.6,
				},
				Methods:    []domain.SearchMethod{domain.MethodSemantic, domain.MethodKeyword},
				FusedScore: 0.82,
				Highlights: []string{"Revenue grew in the second quarter."},
			},
		},
	}
}

func TestSearchCmd_NoService(t *testing.T) {
	setupTestServices(t, Services{})

	_, err := execute(t, "search", "revenue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_TextOutput(t *testing.T) {
	svc := &mockSearchService{
		SearchFunc: func(_ context.Context, query string, _ domain.SearchOptions) (*domain.SearchResponse, error) {
			return sampleResponse(query), nil
		},
	}
	setupTestServices(t, Services{Search: svc})

	out, err := execute(t, "search", "revenue")
	require.NoError(t, err)

	assert.Contains(t, out, "expanded: revenue q2")
	assert.Contains(t, out, "Results (hybrid):")
	assert.Contains(t, out, "[1] report.pdf, page 3 (0.820) semantic+keyword")
	assert.Contains(t, out, "Revenue grew in the second quarter.")
	assert.Equal(t, "revenue", svc.lastQuery)
	assert.False(t, svc.facetedUsed)
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestServices(t, Services{Search: &mockSearchService{}})

	out, err := execute(t, "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_PassesOptions(t *testing.T) {
	svc := &mockSearchService{}
	setupTestServices(t, Services{Search: svc})

	_, err := execute(t, "search", "budget",
		"--limit", "5", "--mode", "keyword", "--threshold", "0.4", "--no-expand",
		"--filter", "document_type=pdf", "-F", "document_type=docx", "-F", "page_range=1-5")
	require.NoError(t, err)

	assert.Equal(t, 5, svc.lastOpts.Limit)
	assert.Equal(t, domain.SearchModeKeyword, svc.lastOpts.Mode)
	assert.InDelta(t, 0.4, svc.lastOpts.Threshold, 1e-9)
	assert.True(t, svc.lastOpts.DisableExpansion)
	assert.Equal(t, []string{"pdf", "docx"}, svc.lastOpts.Filters["document_type"])
	assert.Equal(t, []string{"1-5"}, svc.lastOpts.Filters["page_range"])
}

func TestSearchCmd_InvalidMode(t *testing.T) {
	setupTestServices(t, Services{Search: &mockSearchService{}})

	_, err := execute(t, "search", "x", "--mode", "fuzzy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid search mode "fuzzy"`)
}

func TestSearchCmd_InvalidFilter(t *testing.T) {
	setupTestServices(t, Services{Search: &mockSearchService{}})

	_, err := execute(t, "search", "x", "--filter", "document_type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	svc := &mockSearchService{
		SearchFunc: func(context.Context, string, domain.SearchOptions) (*domain.SearchResponse, error) {
			return nil, domain.ErrSearchUnavailable
		},
	}
	setupTestServices(t, Services{Search: svc})

	_, err := execute(t, "search", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSearchUnavailable))
}

func TestSearchCmd_Facets(t *testing.T) {
	svc := &mockSearchService{
		FacetedSearchFunc: func(_ context.Context, query string, _ domain.SearchOptions) (*domain.SearchResponse, error) {
			resp := sampleResponse(query)
			resp.Facets = domain.FacetSet{
				domain.FacetDocumentType: {
					{Facet: domain.FacetDocumentType, Value: "pdf", Label: "PDF", Count: 1},
				},
			}
			return resp, nil
		},
	}
	setupTestServices(t, Services{Search: svc})

	out, err := execute(t, "search", "revenue", "--facets")
	require.NoError(t, err)

	assert.True(t, svc.facetedUsed)
	assert.Contains(t, out, "Facets:")
	assert.Contains(t, out, "document_type")
	assert.Contains(t, out, "PDF")
}

func TestSearchCmd_JSON(t *testing.T) {
	svc := &mockSearchService{
		SearchFunc: func(_ context.Context, query string, _ domain.SearchOptions) (*domain.SearchResponse, error) {
			return sampleResponse(query), nil
		},
	}
	setupTestServices(t, Services{Search: svc})

	out, err := execute(t, "search", "revenue", "-o", "json")
	require.NoError(t, err)

	var view searchView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "revenue", view.Query)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "c1", view.Results[0].ChunkID)
	assert.InDelta(t, 0.8, view.Results[0].MethodScores["semantic"], 1e-9)
	assert.Equal(t, []string{"semantic", "keyword"}, view.Results[0].Methods)
}

func TestSearchCmd_UnknownFormat(t *testing.T) {
	setupTestServices(t, Services{Search: &mockSearchService{}})

	_, err := execute(t, "search", "x", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestSuggestCmd(t *testing.T) {
	svc := &mockSearchService{
		SuggestFunc: func(partial string) []domain.Suggestion {
			return []domain.Suggestion{
				{Text: partial + "ue growth", Kind: "query"},
				{Text: "revenue", Kind: "term", Category: "financial"},
			}
		},
	}
	setupTestServices(t, Services{Search: svc})

	out, err := execute(t, "suggest", "reven")
	require.NoError(t, err)
	assert.Contains(t, out, "query:\n  revenue growth")
	assert.Contains(t, out, "term:\n  revenue")
}

func TestSuggestCmd_Empty(t *testing.T) {
	setupTestServices(t, Services{Search: &mockSearchService{}})

	out, err := execute(t, "suggest", "zz")
	require.NoError(t, err)
	assert.Contains(t, out, "No suggestions.")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)

	filters, err = parseFilters([]string{" confidence_level = high ", "confidence_level=medium"})
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "medium"}, filters["confidence_level"])

	for _, bad := range []string{"=pdf", "document_type=", "plain"} {
		_, err := parseFilters([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestNewSearchView_DropsUnchangedExpansion(t *testing.T) {
	resp := sampleResponse("q")
	resp.ExpandedQuery = "q"

	view := newSearchView(resp)
	assert.Empty(t, view.ExpandedQuery)
	assert.Nil(t, view.Facets)
}
