package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

var (
	ingestForce  bool
	ingestDryRun bool
	ingestFormat string
	chunkFormat  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents",
	Long: `Extracts, chunks and indexes each file after checking it for duplicates.

A file that duplicates an existing document is refused and the decision
is printed. Use --force to store it anyway; a forced replace removes the
old document and a forced merge folds it into the new one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Show how a file would be chunked",
	Long:  `Extracts and chunks a file without storing anything.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "store even when a duplicate is found")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "classify and chunk without storing")
	addFormatFlag(ingestCmd, &ingestFormat)
	addFormatFlag(chunkCmd, &chunkFormat)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(chunkCmd)
}

// ingestView is the structured form of one ingest outcome.
type ingestView struct {
	File       string       `json:"file" yaml:"file"`
	DocumentID string       `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Stored     bool         `json:"stored" yaml:"stored"`
	Chunks     int          `json:"chunks" yaml:"chunks"`
	Replaced   []string     `json:"replaced,omitempty" yaml:"replaced,omitempty"`
	Decision   decisionView `json:"decision" yaml:"decision"`
	Warnings   []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if err := checkFormat(ingestFormat); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	opts := driving.IngestOptions{Force: ingestForce, DryRun: ingestDryRun}

	views := make([]ingestView, 0, len(args))
	failed := 0
	for _, path := range args {
		view := ingestView{File: path}
		res, err := ingestFile(cmd, path, opts)
		if err != nil {
			failed++
			view.Error = err.Error()
		} else {
			view = newIngestView(path, res)
		}
		views = append(views, view)

		if ingestFormat == formatText {
			printIngest(cmd.OutOrStdout(), view)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if ingestFormat != formatText {
		if err := writeStructured(cmd.OutOrStdout(), ingestFormat, views); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, path string, opts driving.IngestOptions) (*driving.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ingestService.Ingest(commandContext(cmd), path, content, opts)
}

func newIngestView(path string, res *driving.IngestResult) ingestView {
	view := ingestView{
		File:     path,
		Stored:   res.Stored,
		Chunks:   res.ChunkCount,
		Replaced: res.Replaced,
		Warnings: res.Warnings,
	}
	if res.Document != nil && res.Stored {
		view.DocumentID = res.Document.ID
	}
	if res.Decision != nil {
		view.Decision = newDecisionView(res.Decision)
	}
	return view
}

func printIngest(w io.Writer, v ingestView) {
	p := newPainter(w)
	switch {
	case v.Error != "":
		fmt.Fprintf(w, "%s %s: %s\n", p.warn("error"), v.File, v.Error)
		return
	case v.Stored:
		fmt.Fprintf(w, "%s %s as %s (%d chunks)\n", p.accent("stored"), v.File, v.DocumentID, v.Chunks)
	case ingestDryRun:
		fmt.Fprintf(w, "%s %s would produce %d chunks\n", p.muted("dry-run"), v.File, v.Chunks)
	default:
		fmt.Fprintf(w, "%s %s: %s\n", p.warn("refused"), v.File, v.Decision.Action)
	}
	if v.Decision.IsDuplicate {
		printDecision(w, p, v.Decision)
	}
	for _, id := range v.Replaced {
		fmt.Fprintf(w, "  replaced %s\n", id)
	}
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "  %s %s\n", p.warn("warning:"), warning)
	}
}

// chunkView is the structured form of one chunk.
type chunkView struct {
	Index     int    `json:"index" yaml:"index"`
	Page      *int   `json:"page,omitempty" yaml:"page,omitempty"`
	Chars     int    `json:"chars" yaml:"chars"`
	Words     int    `json:"words" yaml:"words"`
	Sentences int    `json:"sentences" yaml:"sentences"`
	Overlap   int    `json:"overlap_sentences" yaml:"overlap_sentences"`
	Content   string `json:"content" yaml:"content"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if err := checkFormat(chunkFormat); err != nil {
		return err
	}

	res, err := ingestFile(cmd, args[0], driving.IngestOptions{DryRun: true, Force: true})
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	views := make([]chunkView, len(res.Chunks))
	for i := range res.Chunks {
		views[i] = newChunkView(&res.Chunks[i])
	}

	out := cmd.OutOrStdout()
	if chunkFormat != formatText {
		return writeStructured(out, chunkFormat, views)
	}

	p := newPainter(out)
	fmt.Fprintf(out, "%s: %d chunks\n\n", p.heading(args[0]), len(views))
	for _, v := range views {
		fmt.Fprintf(out, "  [%d] %s, %d chars, %d sentences", v.Index, pageLabel(v.Page), v.Chars, v.Sentences)
		if v.Overlap > 0 {
			fmt.Fprintf(out, ", %d carried over", v.Overlap)
		}
		fmt.Fprintf(out, "\n      %s\n", p.muted(preview(v.Content, 100)))
	}
	return nil
}

func newChunkView(c *domain.Chunk) chunkView {
	return chunkView{
		Index:     c.Index,
		Page:      c.PageNumber,
		Chars:     c.CharCount,
		Words:     c.WordCount,
		Sentences: c.SentenceCount,
		Overlap:   c.OverlapSentences,
		Content:   c.Content,
	}
}
