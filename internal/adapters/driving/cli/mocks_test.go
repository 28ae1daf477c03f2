package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// mockSearchService implements driving.SearchService for CLI tests.
type mockSearchService struct {
	SearchFunc        func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
	FacetedSearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
	SuggestFunc       func(partial string) []domain.Suggestion

	lastQuery   string
	lastOpts    domain.SearchOptions
	facetedUsed bool
}

func (m *mockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery, m.lastOpts = query, opts
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return &domain.SearchResponse{Query: query, Mode: domain.SearchModeHybrid}, nil
}

func (m *mockSearchService) FacetedSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery, m.lastOpts = query, opts
	m.facetedUsed = true
	if m.FacetedSearchFunc != nil {
		return m.FacetedSearchFunc(ctx, query, opts)
	}
	return &domain.SearchResponse{Query: query, Mode: domain.SearchModeHybrid}, nil
}

func (m *mockSearchService) Suggest(partial string) []domain.Suggestion {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(partial)
	}
	return nil
}

// mockIngestService implements driving.IngestService for CLI tests.
type mockIngestService struct {
	IngestFunc func(ctx context.Context, fileName string, content []byte, opts driving.IngestOptions) (*driving.IngestResult, error)

	calls    []string
	lastOpts driving.IngestOptions
}

func (m *mockIngestService) Ingest(
	ctx context.Context, fileName string, content []byte, opts driving.IngestOptions,
) (*driving.IngestResult, error) {
	m.calls = append(m.calls, fileName)
	m.lastOpts = opts
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, fileName, content, opts)
	}
	return &driving.IngestResult{
		Document:   &domain.Document{ID: "doc-1", FileName: fileName},
		Decision:   &domain.DuplicateDecision{Action: domain.ActionProceed},
		ChunkCount: 1,
		Stored:     !opts.DryRun,
	}, nil
}

func (m *mockIngestService) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// mockDedupService implements driving.DeduplicationService for CLI tests.
type mockDedupService struct {
	MergeFunc func(ctx context.Context, primaryID string, secondaryIDs []string, reason string) (*domain.MergeResult, error)

	lastReason string
}

func (m *mockDedupService) Classify(
	_ context.Context, _ *domain.DocumentCandidate,
) (*domain.DuplicateDecision, error) {
	return &domain.DuplicateDecision{Action: domain.ActionProceed}, nil
}

func (m *mockDedupService) Merge(
	ctx context.Context, primaryID string, secondaryIDs []string, reason string,
) (*domain.MergeResult, error) {
	m.lastReason = reason
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, primaryID, secondaryIDs, reason)
	}
	return &domain.MergeResult{
		PrimaryID: primaryID,
		MergedIDs: secondaryIDs,
		MergedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

// mockQueryStats implements driving.QueryStatsService for CLI tests.
type mockQueryStats struct {
	snapshot domain.QueryStatsSnapshot
	resets   int
}

func (m *mockQueryStats) Snapshot() domain.QueryStatsSnapshot { return m.snapshot }
func (m *mockQueryStats) Reset(context.Context)               { m.resets++ }

// mockDocumentService implements driving.DocumentService for CLI tests.
type mockDocumentService struct {
	ListFunc       func(ctx context.Context) ([]domain.Document, error)
	GetFunc        func(ctx context.Context, id string) (*domain.Document, error)
	GetContentFunc func(ctx context.Context, id string) (string, error)
	GetDetailsFunc func(ctx context.Context, id string) (*driving.DocumentDetails, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *mockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetContent(ctx context.Context, id string) (string, error) {
	if m.GetContentFunc != nil {
		return m.GetContentFunc(ctx, id)
	}
	return "", domain.ErrNotFound
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	if m.GetDetailsFunc != nil {
		return m.GetDetailsFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockSettingsService implements driving.SettingsService for CLI tests.
type mockSettingsService struct {
	settings    domain.Settings
	saved       *domain.Settings
	mode        domain.SearchMode
	provider    domain.AIProvider
	model       string
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultSettings()}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.Settings) error {
	m.saved = settings
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return domain.ErrInvalidInput
	}
	m.mode = mode
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, _ string) error {
	m.provider, m.model = provider, model
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

// setupTestServices installs services and restores package state after the test.
func setupTestServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() {
		SetServices(Services{})
		resetFlags()
	})
}

// resetFlags restores flag variables, which persist between Execute calls.
func resetFlags() {
	verbose = false
	searchLimit, searchMode, searchThreshold = 0, "", 0
	searchNoExpand, searchFilters, searchFacets = false, nil, false
	searchFormat, suggestFormat = formatText, formatText
	ingestForce, ingestDryRun = false, false
	ingestFormat, chunkFormat = formatText, formatText
	dedupFormat, mergeFormat, mergeReason = formatText, formatText, ""
	statsReset, statsFormat = false, formatText
	embeddingModel, embeddingBaseURL, embeddingSkipValidate = "", "", false
	watchInitial, watchForce = false, false
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}
