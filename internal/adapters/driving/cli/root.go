// Package cli implements the docsift command line with cobra.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// CorpusStats counts what the store holds.
type CorpusStats struct {
	ActiveDocuments int `json:"active_documents" yaml:"active_documents"`
	MergedDocuments int `json:"merged_documents" yaml:"merged_documents"`
	Chunks          int `json:"chunks" yaml:"chunks"`
	Embeddings      int `json:"embeddings" yaml:"embeddings"`
}

// Services holds the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Dedup    driving.DeduplicationService
	Search   driving.SearchService
	Stats    driving.QueryStatsService
	Document driving.DocumentService
	Settings driving.SettingsService

	// CorpusStats reports store counts for the stats command. Optional.
	CorpusStats func(ctx context.Context) (CorpusStats, error)

	// ValidateEmbedding pings a provider before settings are saved. Optional.
	ValidateEmbedding func(ctx context.Context, provider, model, baseURL string) error

	// Warnings are startup problems shown once before a command runs,
	// such as an unreachable embedding provider.
	Warnings []string
}

var (
	ingestService     driving.IngestService
	dedupService      driving.DeduplicationService
	searchService     driving.SearchService
	queryStatsService driving.QueryStatsService
	documentService   driving.DocumentService
	settingsService   driving.SettingsService
	corpusStats       func(ctx context.Context) (CorpusStats, error)
	validateEmbedding func(ctx context.Context, provider, model, baseURL string) error
	startupWarnings   []string
)

// verbose enables debug logging.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "Ingest, deduplicate and search documents",
	Long: `docsift ingests documents, detects duplicates before they are stored,
and answers questions with hybrid keyword and semantic search.

Documents are split into sentence-bounded chunks, fingerprinted, and
compared against the corpus by content hash, file name, structure and
meaning. Search fuses keyword and vector results and groups them by facet.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, w := range startupWarnings {
			cmd.PrintErrf("warning: %s\n", w)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
}

// SetServices installs the services used by all commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	dedupService = s.Dedup
	searchService = s.Search
	queryStatsService = s.Stats
	documentService = s.Document
	settingsService = s.Settings
	corpusStats = s.CorpusStats
	validateEmbedding = s.ValidateEmbedding
	startupWarnings = s.Warnings

	tuiConfig = &TUIConfig{
		SearchService:   s.Search,
		DocumentService: s.Document,
		SettingsService: s.Settings,
	}
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command context, falling back to Background
// when the command runs outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
