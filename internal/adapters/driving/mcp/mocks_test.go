package mcp

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response    *domain.SearchResponse
	suggestions []domain.Suggestion
	err         error

	lastQuery   string
	lastOpts    domain.SearchOptions
	facetedUsed bool
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.respond(query)
}

func (m *mockSearchService) FacetedSearch(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	m.facetedUsed = true
	return m.respond(query)
}

func (m *mockSearchService) respond(query string) (*domain.SearchResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.SearchResponse{Query: query, Mode: domain.SearchModeHybrid}, nil
}

func (m *mockSearchService) Suggest(_ string) []domain.Suggestion {
	return m.suggestions
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *driving.IngestResult
	err    error

	lastName string
	lastOpts driving.IngestOptions
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	fileName string,
	_ []byte,
	opts driving.IngestOptions,
) (*driving.IngestResult, error) {
	m.lastName = fileName
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockIngestService) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	details   *driving.DocumentDetails
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
