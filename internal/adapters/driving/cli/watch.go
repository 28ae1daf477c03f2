package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/connectors/filesystem"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/normalisers"
)

var (
	watchInitial bool
	watchForce   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a directory",
	Long: `Watches a directory tree and ingests every supported file that is
created or modified. Duplicates are refused as with 'docsift ingest'.
Hidden files and directories are ignored. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "ingest existing files before watching")
	watchCmd.Flags().BoolVarP(&watchForce, "force", "f", false, "store even when a duplicate is found")
	rootCmd.AddCommand(watchCmd)
}

// supportedFilter accepts paths whose detected MIME type can be ingested.
func supportedFilter(svc driving.IngestService) func(path string) bool {
	supported := make(map[string]bool)
	for _, t := range svc.SupportedMIMETypes() {
		supported[t] = true
	}
	return func(path string) bool {
		return supported[normalisers.DetectMIMEType(path)]
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := filesystem.New(args[0], filesystem.WithFilter(supportedFilter(ingestService)))
	defer watcher.Close()

	out := cmd.OutOrStdout()
	opts := driving.IngestOptions{Force: watchForce}

	if watchInitial {
		files, err := watcher.Scan(ctx)
		if err != nil {
			return err
		}
		for _, path := range files {
			ingestChanged(cmd, out, path, opts)
		}
	}

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	p := newPainter(out)
	fmt.Fprintf(out, "Watching %s %s\n", watcher.Root(), p.muted("(Ctrl+C to stop)"))

	for change := range changes {
		switch change.Type {
		case filesystem.ChangeCreated, filesystem.ChangeUpdated:
			ingestChanged(cmd, out, change.Path, opts)
		case filesystem.ChangeDeleted:
			fmt.Fprintf(out, "%s %s (stored documents are kept)\n", p.muted("removed"), change.FileName())
		}
	}
	return nil
}

func ingestChanged(cmd *cobra.Command, out io.Writer, path string, opts driving.IngestOptions) {
	res, err := ingestFile(cmd, path, opts)
	if err != nil {
		printIngest(out, ingestView{File: path, Error: err.Error()})
		return
	}
	printIngest(out, newIngestView(path, res))
}
