// Package quality filters noise chunks and scores the rest.
package quality

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// DefaultMinChunkLength is the minimum meaningful chunk length in characters.
const DefaultMinChunkLength = 50

// minWords is the fewest words a chunk may have.
const minWords = 5

// Metadata keys written onto surviving chunks.
const (
	MetaQualityScore = "quality_score"
	MetaSensitive    = "sensitive"
)

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\d+\s*$`),
	regexp.MustCompile(`^\s*[a-z]\.\s*$`),
	regexp.MustCompile(`^\s*[-•]\s*$`),
	regexp.MustCompile(`^\s*©.*$`),
	regexp.MustCompile(`^\s*\(?\d+\)?\s*$`),
	regexp.MustCompile(`^\s*\.+\s*$`),
	regexp.MustCompile(`^\s*page\s+\d+.*$`),
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor drops short or noise-only chunks and re-indexes the survivors.
type Processor struct {
	minLength int
}

// New creates a quality filter. A minLength of 0 or less uses the default.
func New(minLength int) *Processor {
	if minLength <= 0 {
		minLength = DefaultMinChunkLength
	}
	return &Processor{minLength: minLength}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "quality"
}

// Process filters chunks. Indices of the remaining chunks are rewritten
// to stay sequential.
func (p *Processor) Process(_ context.Context, _ *domain.Document, _ *domain.ExtractedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(c.Content)) < p.minLength || IsNoise(c.Content) {
			continue
		}
		if c.Metadata == nil {
			c.Metadata = make(map[string]any)
		}
		c.Metadata[MetaQualityScore] = Score(c.Content)
		if ContainsSensitive(c.Content) {
			c.Metadata[MetaSensitive] = true
		}
		c.Index = len(kept)
		kept = append(kept, c)
	}
	return kept, nil
}

// IsNoise reports whether content carries no meaningful text.
func IsNoise(content string) bool {
	clean := strings.ToLower(strings.TrimSpace(content))
	if clean == "" {
		return true
	}

	for _, re := range noisePatterns {
		if re.MatchString(clean) {
			return true
		}
	}

	if len(strings.Fields(clean)) < minWords {
		return true
	}

	for r := 'a'; r <= 'z'; r++ {
		if strings.Contains(clean, strings.Repeat(string(r), 5)) {
			return true
		}
	}

	total, nonAlpha := 0, 0
	for _, r := range clean {
		total++
		if !unicode.IsLetter(r) {
			nonAlpha++
		}
	}
	return float64(nonAlpha)/float64(total) > 0.7
}

// Score rates content in [0,1] by length, sentence shape, capitalisation
// and vocabulary variety.
func Score(content string) float64 {
	score := 0.5
	words := strings.Fields(content)

	switch {
	case len(words) >= 20 && len(words) <= 200:
		score += 0.2
	case len(words) < 5:
		score -= 0.3
	}

	if sentences := len(sentenceEndRe.FindAllString(content, -1)); sentences > 0 {
		avg := float64(len(words)) / float64(sentences)
		if avg >= 5 && avg <= 25 {
			score += 0.1
		}
	}

	if total := utf8.RuneCountInString(content); total > 0 {
		upper := 0
		for _, r := range content {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		ratio := float64(upper) / float64(total)
		if ratio >= 0.02 && ratio <= 0.1 {
			score += 0.1
		}
	}

	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) > 0.6 {
			score += 0.1
		}
	}

	if score > 1 {
		return 1
	}
	return score
}

// ContainsSensitive reports whether content looks like it holds personal data.
func ContainsSensitive(content string) bool {
	for _, re := range sensitivePatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}
