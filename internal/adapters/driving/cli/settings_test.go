package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	svc := newMockSettingsService()
	svc.settings.Embedding.Provider = domain.AIProviderOpenAI
	svc.settings.Embedding.Model = "text-embedding-3-small"
	svc.settings.Embedding.APIKey = "sk-1234567890abcdef"
	setupTestServices(t, Services{Settings: svc})

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)

	for _, section := range []string{"Current Settings", "[Chunking]", "[Duplicates]", "[Fusion]", "[Search]", "[Embedding]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
}

func TestSettingsDefaults(t *testing.T) {
	setupTestServices(t, Services{Settings: newMockSettingsService()})

	out, err := execute(t, "settings", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "Default Settings")
}

func TestSettingsSet(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{Settings: svc})

	out, err := execute(t, "settings", "set", "fusion.keyword_weight", "0.4")
	require.NoError(t, err)
	require.NotNil(t, svc.saved)
	assert.InDelta(t, 0.4, svc.saved.Fusion.Keyword, 1e-9)
	assert.Contains(t, out, "fusion.keyword_weight = 0.4")

	_, err = execute(t, "settings", "set", "search.query_expansion", "false")
	require.NoError(t, err)
	assert.False(t, svc.saved.Search.QueryExpansion)

	_, err = execute(t, "settings", "set", "chunking.chunk_size", "900")
	require.NoError(t, err)
	assert.Equal(t, 900, svc.saved.Chunking.ChunkSize)
}

func TestSettingsSet_Errors(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{Settings: svc})

	_, err := execute(t, "settings", "set", "nope.key", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown setting "nope.key"`)

	_, err = execute(t, "settings", "set", "chunking.chunk_size", "big")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value for chunking.chunk_size")
	assert.Nil(t, svc.saved)
}

func TestSettingsSet_ListsKeys(t *testing.T) {
	setupTestServices(t, Services{})

	out, err := execute(t, "settings", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "dedup.duplicate_threshold\n")
	assert.Contains(t, out, "search.max_results\n")
}

func TestSettingsMode(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{Settings: svc})

	out, err := execute(t, "settings", "mode", "keyword")
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeKeyword, svc.mode)
	assert.Contains(t, out, "Search mode set to: Keyword (lexical match)")

	_, err = execute(t, "settings", "mode", "fuzzy")
	require.Error(t, err)
}

func TestSettingsEmbedding_ValidatesProvider(t *testing.T) {
	svc := newMockSettingsService()
	var checked string
	setupTestServices(t, Services{
		Settings: svc,
		ValidateEmbedding: func(_ context.Context, provider, _, _ string) error {
			checked = provider
			return nil
		},
	})

	out, err := execute(t, "settings", "embedding", "ollama", "--model", "nomic-embed-text")
	require.NoError(t, err)
	assert.Equal(t, "ollama", checked)
	assert.Equal(t, domain.AIProviderOllama, svc.provider)
	assert.Equal(t, "nomic-embed-text", svc.model)
	assert.Contains(t, out, "Embedding provider set to: Ollama (local)")
}

func TestSettingsEmbedding_CheckFailureBlocksSave(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{
		Settings: svc,
		ValidateEmbedding: func(context.Context, string, string, string) error {
			return errors.New("connection refused")
		},
	})

	_, err := execute(t, "settings", "embedding", "openai")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--skip-validate")
	assert.Empty(t, svc.provider)

	_, err = execute(t, "settings", "embedding", "openai", "--skip-validate")
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, svc.provider)
}

func TestSettingsEmbedding_UnknownProvider(t *testing.T) {
	setupTestServices(t, Services{Settings: newMockSettingsService()})

	_, err := execute(t, "settings", "embedding", "cohere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "cohere"`)
}

func TestSettingsEmbedding_Prompt(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{Settings: svc})
	rootCmd.SetIn(strings.NewReader("2\n\nhttp://gpu:11434\n"))
	defer rootCmd.SetIn(nil)

	_, err := execute(t, "settings", "embedding", "--skip-validate")
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, svc.provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOllama], svc.model)
}

func TestSettingsValidate(t *testing.T) {
	svc := newMockSettingsService()
	setupTestServices(t, Services{Settings: svc})

	out, err := execute(t, "settings", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings are valid.")

	svc.validateErr = domain.ErrInvalidInput
	_, err = execute(t, "settings", "validate")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
