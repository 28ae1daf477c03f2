package postprocessors

import (
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/postprocessors/chunker"
	"github.com/custodia-labs/docsift/internal/postprocessors/quality"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("quality", buildQuality)
}

// NewDefaultPipeline builds the chunker followed by the quality filter
// from chunking settings.
func NewDefaultPipeline(cfg domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	stages := []struct {
		name string
		cfg  map[string]any
	}{
		{"chunker", map[string]any{"chunk_size": cfg.ChunkSize, "overlap": cfg.Overlap}},
		{"quality", map[string]any{"min_chunk_length": cfg.MinChunkLength}},
	}

	p := NewPipeline()
	for _, stage := range stages {
		proc, err := r.Build(stage.name, stage.cfg)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlap budget in characters (default: 200)
//   - cross_page (bool): Also chunk the joined full text (default: true)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
		if cross, ok := cfg["cross_page"].(bool); ok {
			opts = append(opts, chunker.WithCrossPageChunks(cross))
		}
	}

	return chunker.New(opts...), nil
}

// buildQuality creates the quality filter from generic config.
// Supported config keys:
//   - min_chunk_length (int): Minimum characters per chunk (default: 50)
func buildQuality(cfg map[string]any) (driven.PostProcessor, error) {
	return quality.New(getIntFromConfig(cfg, "min_chunk_length")), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
