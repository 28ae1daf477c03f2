// Command docsift ingests, deduplicates and searches documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsift/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsift/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsift/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsift/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/services"
	"github.com/custodia-labs/docsift/internal/logger"
	"github.com/custodia-labs/docsift/internal/normalisers"
	"github.com/custodia-labs/docsift/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; it only supplies API keys and overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Reading .env: %v", err)
	}

	ctx := context.Background()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	embedding := ai.Init(ctx, &settings.Embedding)
	defer embedding.Close()

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return fmt.Errorf("building chunking pipeline: %w", err)
	}

	docStore := store.DocumentStore()
	searchIndex := store.SearchEngine()
	vectorIndex := store.VectorIndex()

	dedupService := services.NewDeduplicationService(docStore, vectorIndex, embedding.EmbeddingService, settings.Dedup)
	ingestService := services.NewIngestService(
		normalisers.NewDefaultRegistry(),
		pipeline,
		dedupService,
		docStore,
		searchIndex,
		vectorIndex,
		embedding.EmbeddingService,
	)

	queryStats := services.NewQueryStats(services.WithQueryLog(store.QueryLogStore()))
	if err := queryStats.Load(ctx); err != nil {
		logger.Warn("Loading query log: %v", err)
	}
	searchService := services.NewSearchService(searchIndex, vectorIndex, embedding.EmbeddingService, *settings)
	searchService.SetQueryStats(queryStats)

	cli.SetServices(cli.Services{
		Ingest:   ingestService,
		Dedup:    dedupService,
		Search:   searchService,
		Stats:    queryStats,
		Document: services.NewDocumentService(docStore, searchIndex, vectorIndex),
		Settings: settingsService,
		CorpusStats: func(ctx context.Context) (cli.CorpusStats, error) {
			st, err := store.Stats(ctx)
			if err != nil {
				return cli.CorpusStats{}, err
			}
			return cli.CorpusStats(st), nil
		},
		ValidateEmbedding: func(ctx context.Context, provider, model, baseURL string) error {
			candidate := settings.Embedding
			candidate.Provider = domain.AIProvider(provider)
			if model != "" {
				candidate.Model = model
			} else if m, ok := domain.DefaultEmbeddingModels()[candidate.Provider]; ok {
				candidate.Model = m
			}
			candidate.BaseURL = baseURL
			return ai.ValidateEmbeddingConfig(ctx, &candidate)
		},
		Warnings: embedding.Warnings,
	})
	cli.SetVersion(version)

	return cli.Execute(ctx)
}
