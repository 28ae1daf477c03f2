package retrieval

import (
	"fmt"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// FacetValues returns the values a facet can take, in presentation order.
// It returns nil for unknown facets.
func FacetValues(facet string) []string {
	switch facet {
	case domain.FacetDocumentType:
		return append([]string(nil), documentTypes...)
	case domain.FacetConfidenceLevel:
		return append([]string(nil), confidenceOrder...)
	case domain.FacetPageRange:
		return append([]string(nil), pageRangeOrder...)
	case domain.FacetContentCategory:
		keys := make([]string, len(categories))
		for i, c := range categories {
			keys[i] = c.Key
		}
		return keys
	default:
		return nil
	}
}

// ValidateFilters rejects unknown facet names and values.
func ValidateFilters(filters domain.SearchFilters) error {
	for facet, values := range filters {
		known := FacetValues(facet)
		if known == nil {
			return fmt.Errorf("unknown facet %q: %w", facet, domain.ErrInvalidInput)
		}
		for _, v := range values {
			if !contains(known, v) {
				return fmt.Errorf("unknown value %q for facet %s: %w", v, facet, domain.ErrInvalidInput)
			}
		}
	}
	return nil
}

// ApplyFilters keeps results that match every filtered facet. Within a
// facet the selected values are alternatives. Facets with no selected
// values and unknown facet names do not restrict anything. The input is
// not modified.
func ApplyFilters(results []domain.RetrievalHit, filters domain.SearchFilters) []domain.RetrievalHit {
	if len(filters) == 0 {
		return results
	}
	out := make([]domain.RetrievalHit, 0, len(results))
	for i := range results {
		if matchesAll(&results[i], filters) {
			out = append(out, results[i])
		}
	}
	return out
}

func matchesAll(h *domain.RetrievalHit, filters domain.SearchFilters) bool {
	for facet, values := range filters {
		if len(values) == 0 {
			continue
		}
		if !matches(h, facet, values) {
			return false
		}
	}
	return true
}

func matches(h *domain.RetrievalHit, facet string, values []string) bool {
	switch facet {
	case domain.FacetDocumentType:
		return contains(values, DocumentType(h.DocumentName))
	case domain.FacetConfidenceLevel:
		return contains(values, ConfidenceLevel(h.FusedScore))
	case domain.FacetPageRange:
		return contains(values, PageRange(h.PageNumber))
	case domain.FacetContentCategory:
		for _, c := range ContentCategories(h.Content) {
			if contains(values, c) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
