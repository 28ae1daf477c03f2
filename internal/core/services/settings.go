package services

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize      = "chunking.chunk_size"
	keyChunkOverlap   = "chunking.overlap"
	keyMinChunkLength = "chunking.min_chunk_length"

	keyDuplicateThreshold  = "dedup.duplicate_threshold"
	keyReplaceThreshold    = "dedup.replace_threshold"
	keySkipThreshold       = "dedup.skip_threshold"
	keyFilenameFloor       = "dedup.filename_floor"
	keyStructuralFloor     = "dedup.structural_floor"
	keySemanticFloor       = "dedup.semantic_floor"
	keySemanticSampleChars = "dedup.semantic_sample_chars"

	keySemanticWeight     = "fusion.semantic_weight"
	keyKeywordWeight      = "fusion.keyword_weight"
	keyCorroborationBonus = "fusion.corroboration_bonus"

	keySearchMode          = "search.mode"
	keyMaxResults          = "search.max_results"
	keySimilarityThreshold = "search.similarity_threshold"
	keyQueryExpansion      = "search.query_expansion"
	keySearchTimeout       = "search.timeout"

	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKeyEnv = "embedding.api_key_env"
	keyEmbedRPS       = "embedding.requests_per_second"
)

// DefaultAPIKeyEnv is the variable read for the OpenAI key when
// embedding.api_key_env is not set.
//
//nolint:gosec // G101: environment variable name, not a credential.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// DefaultOllamaURL is used when the Ollama provider has no base URL.
const DefaultOllamaURL = "http://localhost:11434"

// envOverrides are environment variables that take precedence over the
// config file. Empty or zero values leave the file value in place.
type envOverrides struct {
	SearchMode          string  `env:"DOCSIFT_SEARCH_MODE"`
	MaxResults          int     `env:"DOCSIFT_MAX_RESULTS"`
	SimilarityThreshold float64 `env:"DOCSIFT_SIMILARITY_THRESHOLD"`
	EmbeddingProvider   string  `env:"DOCSIFT_EMBEDDING_PROVIDER"`
	EmbeddingModel      string  `env:"DOCSIFT_EMBEDDING_MODEL"`
	EmbeddingBaseURL    string  `env:"DOCSIFT_EMBEDDING_BASE_URL"`
	EmbeddingAPIKey     string  `env:"DOCSIFT_EMBEDDING_API_KEY"`
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get materialises settings from the config store, falling back to
// defaults for missing or malformed keys, then applies environment
// overrides.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Chunking: domain.ChunkingSettings{
			ChunkSize:      s.getInt(keyChunkSize, d.Chunking.ChunkSize),
			Overlap:        s.getInt(keyChunkOverlap, d.Chunking.Overlap),
			MinChunkLength: s.getInt(keyMinChunkLength, d.Chunking.MinChunkLength),
		},
		Dedup: domain.DedupSettings{
			DuplicateThreshold:  s.getFloat(keyDuplicateThreshold, d.Dedup.DuplicateThreshold),
			ReplaceThreshold:    s.getFloat(keyReplaceThreshold, d.Dedup.ReplaceThreshold),
			SkipThreshold:       s.getFloat(keySkipThreshold, d.Dedup.SkipThreshold),
			FilenameFloor:       s.getFloat(keyFilenameFloor, d.Dedup.FilenameFloor),
			StructuralFloor:     s.getFloat(keyStructuralFloor, d.Dedup.StructuralFloor),
			SemanticFloor:       s.getFloat(keySemanticFloor, d.Dedup.SemanticFloor),
			SemanticSampleChars: s.getInt(keySemanticSampleChars, d.Dedup.SemanticSampleChars),
		},
		Fusion: domain.FusionWeights{
			Semantic:           s.getFloat(keySemanticWeight, d.Fusion.Semantic),
			Keyword:            s.getFloat(keyKeywordWeight, d.Fusion.Keyword),
			CorroborationBonus: s.getFloat(keyCorroborationBonus, d.Fusion.CorroborationBonus),
		},
		Search: domain.SearchSettings{
			Mode:                s.getSearchMode(d.Search.Mode),
			MaxResults:          s.getInt(keyMaxResults, d.Search.MaxResults),
			SimilarityThreshold: s.getFloat(keySimilarityThreshold, d.Search.SimilarityThreshold),
			QueryExpansion:      s.getBool(keyQueryExpansion, d.Search.QueryExpansion),
			Timeout:             s.getSeconds(keySearchTimeout, d.Search.Timeout),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(d.Embedding.Provider),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
	}

	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv(s.APIKeyEnv())
	}

	if err := applyEnvOverrides(settings); err != nil {
		return nil, err
	}
	fillEmbeddingDefaults(&settings.Embedding)

	return settings, nil
}

// Save persists settings. API keys are never written to the config file.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("save settings: %w", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyMinChunkLength, settings.Chunking.MinChunkLength},
		{keyDuplicateThreshold, settings.Dedup.DuplicateThreshold},
		{keyReplaceThreshold, settings.Dedup.ReplaceThreshold},
		{keySkipThreshold, settings.Dedup.SkipThreshold},
		{keyFilenameFloor, settings.Dedup.FilenameFloor},
		{keyStructuralFloor, settings.Dedup.StructuralFloor},
		{keySemanticFloor, settings.Dedup.SemanticFloor},
		{keySemanticSampleChars, settings.Dedup.SemanticSampleChars},
		{keySemanticWeight, settings.Fusion.Semantic},
		{keyKeywordWeight, settings.Fusion.Keyword},
		{keyCorroborationBonus, settings.Fusion.CorroborationBonus},
		{keySearchMode, settings.Search.Mode.String()},
		{keyMaxResults, settings.Search.MaxResults},
		{keySimilarityThreshold, settings.Search.SimilarityThreshold},
		{keyQueryExpansion, settings.Search.QueryExpansion},
		{keySearchTimeout, int(settings.Search.Timeout / time.Second)},
		{keyEmbedProvider, string(settings.Embedding.Provider)},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetSearchMode updates the default search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode %q: %w", mode, domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider. An empty model
// selects the provider default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider %q: %w", provider, domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.BaseURL = baseURL
	if provider == domain.AIProviderNone {
		settings.Embedding.Model = ""
		settings.Embedding.BaseURL = ""
	}
	fillEmbeddingDefaults(&settings.Embedding)

	return s.Save(settings)
}

// Validate checks that the current settings are coherent. Semantic-only
// search needs a configured embedding provider; hybrid search degrades to
// keyword search without one.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Search.Mode == domain.SearchModeSemantic && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: search mode %q requires an embedding provider",
			domain.ErrInvalidInput, settings.Search.Mode.Description())
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// APIKeyEnv returns the environment variable holding the embedding API key.
func (s *SettingsService) APIKeyEnv() string {
	if name := s.configStore.GetString(keyEmbedAPIKeyEnv); name != "" {
		return name
	}
	return DefaultAPIKeyEnv
}

func applyEnvOverrides(settings *domain.Settings) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if mode := domain.SearchMode(o.SearchMode); o.SearchMode != "" && mode.IsValid() {
		settings.Search.Mode = mode
	}
	if o.MaxResults > 0 {
		settings.Search.MaxResults = o.MaxResults
	}
	if o.SimilarityThreshold > 0 {
		settings.Search.SimilarityThreshold = o.SimilarityThreshold
	}
	if p := domain.AIProvider(o.EmbeddingProvider); o.EmbeddingProvider != "" && p.IsValid() {
		settings.Embedding.Provider = p
	}
	if o.EmbeddingModel != "" {
		settings.Embedding.Model = o.EmbeddingModel
	}
	if o.EmbeddingBaseURL != "" {
		settings.Embedding.BaseURL = o.EmbeddingBaseURL
	}
	if o.EmbeddingAPIKey != "" {
		settings.Embedding.APIKey = o.EmbeddingAPIKey
	}
	return nil
}

func fillEmbeddingDefaults(e *domain.EmbeddingSettings) {
	if e.Provider == domain.AIProviderNone {
		return
	}
	if e.Model == "" {
		e.Model = domain.DefaultEmbeddingModels()[e.Provider]
	}
	if e.Provider == domain.AIProviderOllama && e.BaseURL == "" {
		e.BaseURL = DefaultOllamaURL
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	secs := s.configStore.GetFloat(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs * float64(time.Second))
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
