package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

var (
	searchLimit     int
	searchMode      string
	searchThreshold float64
	searchNoExpand  bool
	searchFilters   []string
	searchFacets    bool
	searchFormat    string
	suggestFormat   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines keyword (BM25) and semantic (vector) results with weighted fusion;
chunks found by both methods get a corroboration bonus.

Filter by facet with --filter facet=value, repeatable. Values of the same
facet are alternatives. Facets: document_type, confidence_level,
page_range, content_category.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [partial]",
	Short: "Suggest queries for a partial input",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses settings)")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: semantic, keyword or hybrid")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum vector similarity (0 uses settings)")
	searchCmd.Flags().BoolVar(&searchNoExpand, "no-expand", false, "disable query expansion")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "F", nil, "facet filter as facet=value")
	searchCmd.Flags().BoolVar(&searchFacets, "facets", false, "show facet counts")
	addFormatFlag(searchCmd, &searchFormat)
	addFormatFlag(suggestCmd, &suggestFormat)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
}

// parseFilters turns facet=value pairs into search filters.
func parseFilters(pairs []string) (domain.SearchFilters, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(domain.SearchFilters)
	for _, pair := range pairs {
		facet, value, ok := strings.Cut(pair, "=")
		facet = strings.TrimSpace(facet)
		value = strings.TrimSpace(value)
		if !ok || facet == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q (want facet=value)", pair)
		}
		filters[facet] = append(filters[facet], value)
	}
	return filters, nil
}

// hitView is the structured form of a search result.
type hitView struct {
	ChunkID      string             `json:"chunk_id" yaml:"chunk_id"`
	DocumentID   string             `json:"document_id" yaml:"document_id"`
	DocumentName string             `json:"document_name" yaml:"document_name"`
	Page         *int               `json:"page,omitempty" yaml:"page,omitempty"`
	Score        float64            `json:"score" yaml:"score"`
	Methods      []string           `json:"methods" yaml:"methods"`
	MethodScores map[string]float64 `json:"method_scores" yaml:"method_scores"`
	Highlights   []string           `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Content      string             `json:"content" yaml:"content"`
}

// bucketView is the structured form of a facet bucket.
type bucketView struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// searchView is the structured form of a search response.
type searchView struct {
	Query         string                  `json:"query" yaml:"query"`
	ExpandedQuery string                  `json:"expanded_query,omitempty" yaml:"expanded_query,omitempty"`
	Mode          string                  `json:"mode" yaml:"mode"`
	Results       []hitView               `json:"results" yaml:"results"`
	Facets        map[string][]bucketView `json:"facets,omitempty" yaml:"facets,omitempty"`
	Warnings      []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newSearchView(resp *domain.SearchResponse) searchView {
	v := searchView{
		Query:         resp.Query,
		ExpandedQuery: resp.ExpandedQuery,
		Mode:          string(resp.Mode),
		Results:       make([]hitView, 0, len(resp.Results)),
		Warnings:      resp.Warnings,
	}
	if v.ExpandedQuery == v.Query {
		v.ExpandedQuery = ""
	}
	for i := range resp.Results {
		h := &resp.Results[i]
		hv := hitView{
			ChunkID:      h.ChunkID,
			DocumentID:   h.DocumentID,
			DocumentName: h.DocumentName,
			Page:         h.PageNumber,
			Score:        h.FusedScore,
			MethodScores: make(map[string]float64, len(h.MethodScores)),
			Highlights:   h.Highlights,
			Content:      h.Content,
		}
		for _, m := range h.Methods {
			hv.Methods = append(hv.Methods, string(m))
		}
		for m, score := range h.MethodScores {
			hv.MethodScores[string(m)] = score
		}
		v.Results = append(v.Results, hv)
	}
	if len(resp.Facets) > 0 {
		v.Facets = make(map[string][]bucketView, len(resp.Facets))
		for facet, buckets := range resp.Facets {
			for _, b := range buckets {
				v.Facets[facet] = append(v.Facets[facet], bucketView{Value: b.Value, Label: b.Label, Count: b.Count})
			}
		}
	}
	return v
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}
	if err := checkFormat(searchFormat); err != nil {
		return err
	}

	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}
	mode := domain.SearchMode(searchMode)
	if searchMode != "" && !mode.IsValid() {
		return fmt.Errorf("invalid search mode %q (want semantic, keyword or hybrid)", searchMode)
	}

	opts := domain.SearchOptions{
		Limit:            searchLimit,
		Mode:             mode,
		Threshold:        searchThreshold,
		DisableExpansion: searchNoExpand,
		Filters:          filters,
	}

	ctx := commandContext(cmd)
	var resp *domain.SearchResponse
	if searchFacets {
		resp, err = searchService.FacetedSearch(ctx, query, opts)
	} else {
		resp, err = searchService.Search(ctx, query, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	view := newSearchView(resp)
	if searchFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), searchFormat, view)
	}
	outputSearchText(cmd.OutOrStdout(), view)
	return nil
}

func outputSearchText(w io.Writer, v searchView) {
	p := newPainter(w)
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "%s %s\n", p.warn("warning:"), warning)
	}
	if v.ExpandedQuery != "" {
		fmt.Fprintf(w, "%s\n", p.muted("expanded: "+v.ExpandedQuery))
	}

	if len(v.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
	} else {
		fmt.Fprintf(w, "Results (%s):\n\n", v.Mode)
		for i, r := range v.Results {
			fmt.Fprintf(w, "  [%d] %s, %s (%.3f) %s\n",
				i+1, p.heading(r.DocumentName), pageLabel(r.Page), r.Score, p.muted(strings.Join(r.Methods, "+")))
			snippet := preview(r.Content, 160)
			if len(r.Highlights) > 0 {
				snippet = preview(r.Highlights[0], 160)
			}
			fmt.Fprintf(w, "      %s\n\n", snippet)
		}
	}

	if len(v.Facets) == 0 {
		return
	}
	fmt.Fprintln(w, p.heading("Facets:"))
	for _, facet := range domain.FacetNames() {
		buckets := v.Facets[facet]
		if len(buckets) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", p.accent(facet))
		for _, b := range buckets {
			fmt.Fprintf(w, "    %-28s %d\n", b.Label, b.Count)
		}
	}
}

// suggestionView is the structured form of a suggestion.
type suggestionView struct {
	Text     string `json:"text" yaml:"text"`
	Kind     string `json:"kind" yaml:"kind"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	if err := checkFormat(suggestFormat); err != nil {
		return err
	}

	suggestions := searchService.Suggest(args[0])
	views := make([]suggestionView, len(suggestions))
	for i, s := range suggestions {
		views[i] = suggestionView{Text: s.Text, Kind: s.Kind, Category: s.Category}
	}

	out := cmd.OutOrStdout()
	if suggestFormat != formatText {
		return writeStructured(out, suggestFormat, views)
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "No suggestions.")
		return nil
	}

	byKind := make(map[string][]suggestionView)
	var kinds []string
	for _, v := range views {
		if _, ok := byKind[v.Kind]; !ok {
			kinds = append(kinds, v.Kind)
		}
		byKind[v.Kind] = append(byKind[v.Kind], v)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(out, "%s:\n", kind)
		for _, v := range byKind[kind] {
			fmt.Fprintf(out, "  %s\n", v.Text)
		}
	}
	return nil
}
