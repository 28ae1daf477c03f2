package driving

import "github.com/custodia-labs/docsift/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// SetSearchMode updates the default search mode.
	SetSearchMode(mode domain.SearchMode) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error

	// Validate checks if current settings are coherent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
