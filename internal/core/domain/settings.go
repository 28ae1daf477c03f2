package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// SearchMode defines which retrieval methods a search runs.
type SearchMode string

// Available search modes.
const (
	// SearchModeSemantic uses only vector similarity search.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeKeyword uses only lexical search.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHybrid runs both methods and fuses them.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeSemantic, SearchModeKeyword, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeSemantic || m == SearchModeHybrid
}

// UsesKeyword returns true if this mode runs lexical search.
func (m SearchMode) UsesKeyword() bool {
	return m == SearchModeKeyword || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeSemantic:
		return "Semantic (vector similarity)"
	case SearchModeKeyword:
		return "Keyword (lexical match)"
	case SearchModeHybrid:
		return "Hybrid (keyword + semantic, fused)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeSemantic, SearchModeKeyword, SearchModeHybrid}
}

// AIProvider identifies an embedding provider.
type AIProvider string

// Available providers.
const (
	// AIProviderNone disables embeddings and the semantic path.
	AIProviderNone AIProvider = "none"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderNone, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "None (semantic search disabled)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// ChunkingSettings configures the segmenter.
type ChunkingSettings struct {
	// ChunkSize is the maximum characters per chunk.
	ChunkSize int

	// Overlap is the character budget for sentences carried between chunks.
	Overlap int

	// MinChunkLength drops chunks shorter than this many characters.
	MinChunkLength int
}

// DedupSettings configures duplicate classification.
type DedupSettings struct {
	// DuplicateThreshold is the minimum score to flag a duplicate.
	DuplicateThreshold float64

	// ReplaceThreshold is the minimum score for replace or merge.
	ReplaceThreshold float64

	// SkipThreshold is the minimum score for skip.
	SkipThreshold float64

	// FilenameFloor is the minimum filename similarity reported.
	FilenameFloor float64

	// StructuralFloor is the minimum structural similarity reported.
	StructuralFloor float64

	// SemanticFloor is the minimum semantic similarity reported.
	SemanticFloor float64

	// SemanticSampleChars limits the text embedded for semantic matching.
	SemanticSampleChars int
}

// FusionWeights configures how per-method scores combine.
type FusionWeights struct {
	// Semantic weights the vector similarity score.
	Semantic float64

	// Keyword weights the lexical score.
	Keyword float64

	// CorroborationBonus multiplies the fused score when both methods agree.
	CorroborationBonus float64
}

// DefaultFusionWeights returns the default 0.7/0.3 weighting with a 1.1 bonus.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Semantic: 0.7, Keyword: 0.3, CorroborationBonus: 1.1}
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Mode is the default retrieval mode.
	Mode SearchMode

	// MaxResults is the default result count.
	MaxResults int

	// SimilarityThreshold is the minimum vector similarity.
	SimilarityThreshold float64

	// QueryExpansion enables expansion with related terms.
	QueryExpansion bool

	// Timeout bounds the collaborator calls of one query.
	Timeout time.Duration
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles embedding calls, 0 for unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderNone {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Settings holds all application settings.
type Settings struct {
	Chunking  ChunkingSettings
	Dedup     DedupSettings
	Fusion    FusionWeights
	Search    SearchSettings
	Embedding EmbeddingSettings
}

// DefaultSettings returns settings with the stock thresholds and weights.
// Embeddings are left unconfigured by default.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			ChunkSize:      1000,
			Overlap:        200,
			MinChunkLength: 50,
		},
		Dedup: DedupSettings{
			DuplicateThreshold:  0.85,
			ReplaceThreshold:    0.90,
			SkipThreshold:       0.95,
			FilenameFloor:       0.70,
			StructuralFloor:     0.80,
			SemanticFloor:       0.85,
			SemanticSampleChars: 2000,
		},
		Fusion: DefaultFusionWeights(),
		Search: SearchSettings{
			Mode:                SearchModeHybrid,
			MaxResults:          20,
			SimilarityThreshold: 0.7,
			QueryExpansion:      true,
			Timeout:             10 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderNone,
		},
	}
}

// Validate checks that thresholds and weights are coherent.
func (s *Settings) Validate() error {
	if s.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative", ErrInvalidInput)
	}

	d := s.Dedup
	for name, v := range map[string]float64{
		"duplicate_threshold": d.DuplicateThreshold,
		"replace_threshold":   d.ReplaceThreshold,
		"skip_threshold":      d.SkipThreshold,
		"filename_floor":      d.FilenameFloor,
		"structural_floor":    d.StructuralFloor,
		"semantic_floor":      d.SemanticFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: dedup.%s must be within [0,1], got %v", ErrInvalidInput, name, v)
		}
	}
	if d.DuplicateThreshold > d.ReplaceThreshold || d.ReplaceThreshold > d.SkipThreshold {
		return fmt.Errorf("%w: dedup thresholds must satisfy duplicate <= replace <= skip", ErrInvalidInput)
	}

	if s.Fusion.Semantic < 0 || s.Fusion.Keyword < 0 || s.Fusion.CorroborationBonus < 0 {
		return fmt.Errorf("%w: fusion weights must not be negative", ErrInvalidInput)
	}
	if !s.Search.Mode.IsValid() {
		return fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, s.Search.Mode)
	}
	if s.Search.SimilarityThreshold < 0 || s.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be within [0,1]", ErrInvalidInput)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	return nil
}
