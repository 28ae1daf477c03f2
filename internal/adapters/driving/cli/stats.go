package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsReset  bool
	statsFormat string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and query statistics",
	Long: `Shows how many documents, chunks and embeddings are stored, and
analytics over recent queries: volume, latency, error rate and the most
frequent query categories.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsReset, "reset", false, "clear the query log")
	addFormatFlag(statsCmd, &statsFormat)
	rootCmd.AddCommand(statsCmd)
}

// termView is a counted term.
type termView struct {
	Term  string `json:"term" yaml:"term"`
	Count int    `json:"count" yaml:"count"`
}

// queryStatsView is the structured form of query analytics.
type queryStatsView struct {
	TotalQueries      int        `json:"total_queries" yaml:"total_queries"`
	QueriesPerMinute  float64    `json:"queries_per_minute" yaml:"queries_per_minute"`
	AverageResponseMS float64    `json:"average_response_ms" yaml:"average_response_ms"`
	ErrorRate         float64    `json:"error_rate" yaml:"error_rate"`
	TopCategories     []termView `json:"top_categories,omitempty" yaml:"top_categories,omitempty"`
	TopQueries        []termView `json:"top_queries,omitempty" yaml:"top_queries,omitempty"`
}

type statsView struct {
	Corpus  *CorpusStats    `json:"corpus,omitempty" yaml:"corpus,omitempty"`
	Queries *queryStatsView `json:"queries,omitempty" yaml:"queries,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if queryStatsService == nil && corpusStats == nil {
		return errors.New("statistics not configured")
	}
	if err := checkFormat(statsFormat); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsReset {
		if queryStatsService == nil {
			return errors.New("query statistics not configured")
		}
		queryStatsService.Reset(commandContext(cmd))
		fmt.Fprintln(out, "Query log cleared.")
		return nil
	}

	var view statsView
	if corpusStats != nil {
		counts, err := corpusStats(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to count corpus: %w", err)
		}
		view.Corpus = &counts
	}
	if queryStatsService != nil {
		snap := queryStatsService.Snapshot()
		qv := &queryStatsView{
			TotalQueries:      snap.TotalQueries,
			QueriesPerMinute:  snap.QueriesPerMinute,
			AverageResponseMS: float64(snap.AverageResponseTime.Microseconds()) / 1000,
			ErrorRate:         snap.ErrorRate,
		}
		for _, tc := range snap.TopCategories {
			qv.TopCategories = append(qv.TopCategories, termView{Term: tc.Term, Count: tc.Count})
		}
		for _, tc := range snap.TopQueries {
			qv.TopQueries = append(qv.TopQueries, termView{Term: tc.Term, Count: tc.Count})
		}
		view.Queries = qv
	}

	if statsFormat != formatText {
		return writeStructured(out, statsFormat, view)
	}

	p := newPainter(out)
	if view.Corpus != nil {
		fmt.Fprintln(out, p.heading("[Corpus]"))
		fmt.Fprintf(out, "  Active documents: %d\n", view.Corpus.ActiveDocuments)
		fmt.Fprintf(out, "  Merged documents: %d\n", view.Corpus.MergedDocuments)
		fmt.Fprintf(out, "  Chunks:           %d\n", view.Corpus.Chunks)
		fmt.Fprintf(out, "  Embeddings:       %d\n", view.Corpus.Embeddings)
		fmt.Fprintln(out)
	}
	if q := view.Queries; q != nil {
		fmt.Fprintln(out, p.heading("[Queries]"))
		fmt.Fprintf(out, "  Total:            %d\n", q.TotalQueries)
		fmt.Fprintf(out, "  Per minute:       %.2f\n", q.QueriesPerMinute)
		fmt.Fprintf(out, "  Avg response:     %.1f ms\n", q.AverageResponseMS)
		fmt.Fprintf(out, "  Error rate:       %.1f%%\n", q.ErrorRate*100)
		if len(q.TopCategories) > 0 {
			fmt.Fprintln(out, "  Top categories:")
			for _, tc := range q.TopCategories {
				fmt.Fprintf(out, "    %-20s %d\n", tc.Term, tc.Count)
			}
		}
		if len(q.TopQueries) > 0 {
			fmt.Fprintln(out, "  Top queries:")
			for _, tc := range q.TopQueries {
				fmt.Fprintf(out, "    %-20s %d\n", tc.Term, tc.Count)
			}
		}
	}
	return nil
}
