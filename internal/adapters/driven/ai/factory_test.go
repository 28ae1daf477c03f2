package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "none provider returns nil",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderNone},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				require.NotNil(t, svc)
				assert.Equal(t, tt.settings.Model, svc.ModelName())
			}
		})
	}
}

func ollamaServer(t *testing.T, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable service is returned", func(t *testing.T) {
		settings := &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusOK),
			Model:    "nomic-embed-text",
		}
		svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})

	t.Run("unreachable service wraps ErrEmbeddingUnavailable", func(t *testing.T) {
		settings := &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusInternalServerError),
		}
		svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
		assert.Nil(t, svc)
		require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "service unreachable")
	})

	t.Run("unconfigured returns nil without error", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(context.Background(), nil)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})
}

func TestValidateEmbeddingConfig(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), nil))
	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusOK),
	}))
	assert.Error(t, ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  ollamaServer(t, http.StatusBadGateway),
	}))
}

func TestInit(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		result := Init(context.Background(), &domain.EmbeddingSettings{Provider: domain.AIProviderNone})
		assert.Nil(t, result.EmbeddingService)
		assert.False(t, result.FellBack)
		assert.Empty(t, result.Warnings)
	})

	t.Run("missing key falls back", func(t *testing.T) {
		result := Init(context.Background(), &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
		assert.Nil(t, result.EmbeddingService)
		assert.True(t, result.FellBack)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "missing credentials")
	})

	t.Run("unreachable falls back", func(t *testing.T) {
		result := Init(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusInternalServerError),
		})
		assert.Nil(t, result.EmbeddingService)
		assert.True(t, result.FellBack)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("reachable", func(t *testing.T) {
		result := Init(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  ollamaServer(t, http.StatusOK),
		})
		defer result.Close()
		assert.NotNil(t, result.EmbeddingService)
		assert.False(t, result.FellBack)
	})
}
