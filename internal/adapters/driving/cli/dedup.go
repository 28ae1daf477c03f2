package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

var (
	dedupFormat string
	mergeReason string
	mergeFormat string
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Check for and merge duplicate documents",
}

var dedupCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Classify a file against the corpus",
	Long: `Compares a file with stored documents by exact content, file name,
structure and meaning, and prints the recommended action. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedupCheck,
}

var dedupMergeCmd = &cobra.Command{
	Use:   "merge [primary-id] [secondary-id...]",
	Short: "Merge duplicates into a primary document",
	Long: `Marks each secondary document as merged into the primary and records
the merge on the primary. Either every document is updated or none is.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDedupMerge,
}

func init() {
	addFormatFlag(dedupCheckCmd, &dedupFormat)
	dedupMergeCmd.Flags().StringVarP(&mergeReason, "reason", "r", "", "reason recorded with the merge")
	addFormatFlag(dedupMergeCmd, &mergeFormat)

	dedupCmd.AddCommand(dedupCheckCmd)
	dedupCmd.AddCommand(dedupMergeCmd)
	rootCmd.AddCommand(dedupCmd)
}

// matchView is the structured form of a match candidate.
type matchView struct {
	DocumentID string  `json:"document_id" yaml:"document_id"`
	FileName   string  `json:"file_name" yaml:"file_name"`
	MatchType  string  `json:"match_type" yaml:"match_type"`
	Score      float64 `json:"score" yaml:"score"`
	Reason     string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// decisionView is the structured form of a duplicate decision.
type decisionView struct {
	IsDuplicate     bool        `json:"is_duplicate" yaml:"is_duplicate"`
	Action          string      `json:"action" yaml:"action"`
	Confidence      float64     `json:"confidence" yaml:"confidence"`
	MatchType       string      `json:"match_type,omitempty" yaml:"match_type,omitempty"`
	Best            *matchView  `json:"best,omitempty" yaml:"best,omitempty"`
	Similar         []matchView `json:"similar,omitempty" yaml:"similar,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Warnings        []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newMatchView(m *domain.MatchCandidate) matchView {
	return matchView{
		DocumentID: m.Document.ID,
		FileName:   m.Document.FileName,
		MatchType:  string(m.MatchType),
		Score:      m.Score,
		Reason:     m.Reason,
	}
}

func newDecisionView(d *domain.DuplicateDecision) decisionView {
	v := decisionView{
		IsDuplicate:     d.IsDuplicate,
		Action:          string(d.Action),
		Confidence:      d.Confidence,
		MatchType:       string(d.MatchType),
		Recommendations: d.Recommendations,
		Warnings:        d.Warnings,
	}
	if d.Best != nil {
		best := newMatchView(d.Best)
		v.Best = &best
	}
	for i := range d.Similar {
		v.Similar = append(v.Similar, newMatchView(&d.Similar[i]))
	}
	return v
}

func printDecision(w io.Writer, p painter, d decisionView) {
	if d.Best != nil {
		fmt.Fprintf(w, "  best match: %s (%s) %s %.2f\n",
			d.Best.FileName, d.Best.DocumentID, d.Best.MatchType, d.Best.Score)
		if d.Best.Reason != "" {
			fmt.Fprintf(w, "    %s\n", p.muted(d.Best.Reason))
		}
	}
	for _, r := range d.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func runDedupCheck(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if err := checkFormat(dedupFormat); err != nil {
		return err
	}

	res, err := ingestFile(cmd, args[0], driving.IngestOptions{DryRun: true})
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}
	if res.Decision == nil {
		return errors.New("duplicate check produced no decision")
	}

	view := newDecisionView(res.Decision)
	out := cmd.OutOrStdout()
	if dedupFormat != formatText {
		return writeStructured(out, dedupFormat, view)
	}

	p := newPainter(out)
	fmt.Fprintf(out, "%s: %s (confidence %.2f)\n", p.heading(args[0]), p.accent(view.Action), view.Confidence)
	if !view.IsDuplicate {
		fmt.Fprintln(out, "  no duplicate found")
	}
	printDecision(out, p, view)
	for _, m := range view.Similar {
		if view.Best != nil && m.DocumentID == view.Best.DocumentID {
			continue
		}
		fmt.Fprintf(out, "  similar: %s (%s) %s %.2f\n", m.FileName, m.DocumentID, m.MatchType, m.Score)
	}
	for _, warning := range view.Warnings {
		fmt.Fprintf(out, "  %s %s\n", p.warn("warning:"), warning)
	}
	return nil
}

// mergeView is the structured form of a merge result.
type mergeView struct {
	PrimaryID         string   `json:"primary_id" yaml:"primary_id"`
	MergedIDs         []string `json:"merged_ids" yaml:"merged_ids"`
	OriginalFileNames []string `json:"original_file_names" yaml:"original_file_names"`
	TotalAffected     int      `json:"total_affected" yaml:"total_affected"`
	MergedAt          string   `json:"merged_at" yaml:"merged_at"`
}

func runDedupMerge(cmd *cobra.Command, args []string) error {
	if dedupService == nil {
		return errors.New("deduplication service not configured")
	}
	if err := checkFormat(mergeFormat); err != nil {
		return err
	}

	res, err := dedupService.Merge(commandContext(cmd), args[0], args[1:], mergeReason)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	view := mergeView{
		PrimaryID:         res.PrimaryID,
		MergedIDs:         res.MergedIDs,
		OriginalFileNames: res.OriginalFileNames,
		TotalAffected:     res.TotalAffected(),
		MergedAt:          res.MergedAt.Format(time.RFC3339),
	}
	out := cmd.OutOrStdout()
	if mergeFormat != formatText {
		return writeStructured(out, mergeFormat, view)
	}

	fmt.Fprintf(out, "Merged %d documents into %s\n", len(view.MergedIDs), view.PrimaryID)
	for i, id := range view.MergedIDs {
		name := ""
		if i < len(view.OriginalFileNames) {
			name = view.OriginalFileNames[i]
		}
		fmt.Fprintf(out, "  %s %s\n", id, name)
	}
	return nil
}
