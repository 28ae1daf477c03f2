package memory

import (
	"sync"

	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore for tests.
//
// Set stores numbers the way the TOML store decodes them (int64 and
// float64), so settings read back from memory match what a reload of
// config.toml would produce.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	saves  int
}

// NewConfigStore creates an empty config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get returns the stored value for key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString returns a string value, or "" for missing keys and other types.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// GetInt returns an integer value. Fractional numbers are not truncated;
// like the TOML store they read as 0.
func (s *ConfigStore) GetInt(key string) int {
	n, _ := s.lookup(key).(int64)
	return int(n)
}

// GetFloat returns a numeric value. Whole numbers are accepted because
// TOML writes 1.0 thresholds and weights as integers when edited by hand.
func (s *ConfigStore) GetFloat(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetBool returns a boolean value, or false for missing keys and other types.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = decoded(value)
	s.saves++
	return nil
}

// Save is a no-op; values live only in memory.
func (s *ConfigStore) Save() error {
	return nil
}

// Load is a no-op; values live only in memory.
func (s *ConfigStore) Load() error {
	return nil
}

// Path returns a marker in place of a file path.
func (s *ConfigStore) Path() string {
	return ":memory:"
}

// Writes reports how many values have been set.
func (s *ConfigStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}

// decoded converts Go numeric types to the ones go-toml returns.
func decoded(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}
