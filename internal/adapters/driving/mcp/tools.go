package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// defaultLimit caps search results when the caller gives no limit.
const defaultLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string              `json:"query" jsonschema:"the search query to find document passages"`
	Limit   int                 `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Mode    string              `json:"mode,omitempty" jsonschema:"retrieval mode: semantic, keyword or hybrid"`
	Filters map[string][]string `json:"filters,omitempty" jsonschema:"facet filters such as document_type or confidence_level mapped to accepted values"`
	Facets  bool                `json:"facets,omitempty" jsonschema:"return facet counts for the results"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Query         string                   `json:"query"`
	ExpandedQuery string                   `json:"expanded_query,omitempty"`
	Mode          string                   `json:"mode"`
	Results       []SearchResultOutput     `json:"results"`
	Count         int                      `json:"count"`
	Facets        map[string][]FacetOutput `json:"facets,omitempty"`
	Warnings      []string                 `json:"warnings,omitempty"`
}

// SearchResultOutput represents a single fused search hit.
type SearchResultOutput struct {
	DocumentID   string             `json:"document_id"`
	DocumentName string             `json:"document_name"`
	ChunkID      string             `json:"chunk_id"`
	Page         *int               `json:"page,omitempty"`
	Score        float64            `json:"score"`
	Methods      []string           `json:"methods"`
	MethodScores map[string]float64 `json:"method_scores,omitempty"`
	Highlights   []string           `json:"highlights,omitempty"`
	Content      string             `json:"content,omitempty"`
}

// FacetOutput is a single facet bucket.
type FacetOutput struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CheckDuplicateInput is the input schema for the check_duplicate tool.
type CheckDuplicateInput struct {
	FileName string `json:"file_name" jsonschema:"the candidate file name, extension included"`
	Content  string `json:"content" jsonschema:"the candidate document text"`
}

// CheckDuplicateOutput is the output schema for the check_duplicate tool.
type CheckDuplicateOutput struct {
	IsDuplicate     bool          `json:"is_duplicate"`
	Action          string        `json:"action"`
	Confidence      float64       `json:"confidence"`
	MatchType       string        `json:"match_type,omitempty"`
	Matches         []MatchOutput `json:"matches,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Warnings        []string      `json:"warnings,omitempty"`
	ChunkCount      int           `json:"chunk_count"`
}

// MatchOutput is an existing document similar to the candidate.
type MatchOutput struct {
	DocumentID string  `json:"document_id"`
	FileName   string  `json:"file_name"`
	MatchType  string  `json:"match_type"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason,omitempty"`
}

// SuggestInput is the input schema for the suggest tool.
type SuggestInput struct {
	Partial string `json:"partial" jsonschema:"the partially typed query"`
}

// SuggestOutput is the output schema for the suggest tool.
type SuggestOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// SuggestionOutput is a single suggestion.
type SuggestionOutput struct {
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	Category string `json:"category,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search document passages with fused semantic and keyword retrieval",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest",
		Description: "Suggest completions and related terms for a partial query",
	}, s.handleSuggest)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "check_duplicate",
			Description: "Classify a document against the corpus without storing it",
		}, s.handleCheckDuplicate)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	mode := domain.SearchMode(input.Mode)
	if input.Mode != "" && !mode.IsValid() {
		return nil, SearchOutput{}, fmt.Errorf("invalid search mode %q", input.Mode)
	}

	opts := domain.SearchOptions{
		Limit:   limit,
		Mode:    mode,
		Filters: domain.SearchFilters(input.Filters),
		Facets:  input.Facets,
	}

	var (
		resp *domain.SearchResponse
		err  error
	)
	if input.Facets || len(input.Filters) > 0 {
		resp, err = s.ports.Search.FacetedSearch(ctx, input.Query, opts)
	} else {
		resp, err = s.ports.Search.Search(ctx, input.Query, opts)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, newSearchOutput(resp), nil
}

func newSearchOutput(resp *domain.SearchResponse) SearchOutput {
	output := SearchOutput{
		Query:         resp.Query,
		ExpandedQuery: resp.ExpandedQuery,
		Mode:          resp.Mode.String(),
		Results:       make([]SearchResultOutput, len(resp.Results)),
		Count:         len(resp.Results),
		Warnings:      resp.Warnings,
	}

	for i := range resp.Results {
		hit := &resp.Results[i]
		methods := make([]string, len(hit.Methods))
		scores := make(map[string]float64, len(hit.Methods))
		for j, m := range hit.Methods {
			methods[j] = string(m)
			scores[string(m)] = hit.Score(m)
		}
		output.Results[i] = SearchResultOutput{
			DocumentID:   hit.DocumentID,
			DocumentName: hit.DocumentName,
			ChunkID:      hit.ChunkID,
			Page:         hit.PageNumber,
			Score:        hit.FusedScore,
			Methods:      methods,
			MethodScores: scores,
			Highlights:   hit.Highlights,
			Content:      hit.Content,
		}
	}

	if resp.Facets != nil {
		output.Facets = make(map[string][]FacetOutput, len(resp.Facets))
		for name, buckets := range resp.Facets {
			out := make([]FacetOutput, len(buckets))
			for i, b := range buckets {
				out[i] = FacetOutput{Value: b.Value, Label: b.Label, Count: b.Count}
			}
			output.Facets[name] = out
		}
	}
	return output
}

// handleCheckDuplicate runs a dry-run ingestion and reports the classification.
func (s *Server) handleCheckDuplicate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CheckDuplicateInput,
) (*mcp.CallToolResult, CheckDuplicateOutput, error) {
	if s.ports.Ingest == nil {
		return nil, CheckDuplicateOutput{}, ErrIngestUnavailable
	}
	if input.FileName == "" {
		return nil, CheckDuplicateOutput{}, errors.New("file_name is required")
	}

	res, err := s.ports.Ingest.Ingest(ctx, input.FileName, []byte(input.Content), driving.IngestOptions{DryRun: true})
	if err != nil {
		return nil, CheckDuplicateOutput{}, err
	}

	output := CheckDuplicateOutput{
		Action:     string(domain.ActionProceed),
		ChunkCount: res.ChunkCount,
		Warnings:   res.Warnings,
	}
	d := res.Decision
	if d == nil {
		return nil, output, nil
	}

	output.IsDuplicate = d.IsDuplicate
	output.Action = string(d.Action)
	output.Confidence = d.Confidence
	output.MatchType = d.MatchType.String()
	output.Recommendations = d.Recommendations
	output.Warnings = append(output.Warnings, d.Warnings...)
	for _, c := range d.Similar {
		output.Matches = append(output.Matches, MatchOutput{
			DocumentID: c.Document.ID,
			FileName:   c.Document.FileName,
			MatchType:  c.MatchType.String(),
			Score:      c.Score,
			Reason:     c.Reason,
		})
	}
	return nil, output, nil
}

// handleSuggest handles the suggest tool invocation.
func (s *Server) handleSuggest(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions := s.ports.Search.Suggest(input.Partial)
	output := SuggestOutput{Suggestions: make([]SuggestionOutput, len(suggestions))}
	for i, sg := range suggestions {
		output.Suggestions[i] = SuggestionOutput{Text: sg.Text, Kind: sg.Kind, Category: sg.Category}
	}
	return nil, output, nil
}
