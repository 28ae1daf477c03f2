package retrieval

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// Document types.
const (
	TypePDF     = "pdf"
	TypePPTX    = "pptx"
	TypeDOCX    = "docx"
	TypeUnknown = "unknown"
)

// Confidence levels in severity order.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Page ranges in presentation order.
const (
	Pages1To10   = "1-10"
	Pages11To50  = "11-50"
	Pages51To100 = "51-100"
	PagesOver100 = "100+"
)

var (
	confidenceOrder = []string{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}
	pageRangeOrder  = []string{Pages1To10, Pages11To50, Pages51To100, PagesOver100}
	documentTypes   = []string{TypeDOCX, TypePDF, TypePPTX, TypeUnknown}
)

// DocumentType classifies a file name by extension.
func DocumentType(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	switch ext {
	case TypePDF, TypePPTX, TypeDOCX:
		return ext
	default:
		return TypeUnknown
	}
}

// ConfidenceLevel buckets a fused score.
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PageRange buckets a page number. Chunks without a page (cross-page
// chunks) fall into the first bucket.
func PageRange(page *int) string {
	n := 0
	if page != nil {
		n = *page
	}
	switch {
	case n <= 10:
		return Pages1To10
	case n <= 50:
		return Pages11To50
	case n <= 100:
		return Pages51To100
	default:
		return PagesOver100
	}
}

// GenerateFacets counts results per facet value. It holds no state: the
// same input always produces the same buckets, so filtered result sets
// can be refaceted any number of times. An empty input yields an empty
// set.
func GenerateFacets(results []domain.RetrievalHit) domain.FacetSet {
	facets := domain.FacetSet{}
	if len(results) == 0 {
		return facets
	}

	types := make(map[string]int)
	levels := make(map[string]int)
	ranges := make(map[string]int)
	cats := make(map[string]int)
	for i := range results {
		r := &results[i]
		types[DocumentType(r.DocumentName)]++
		levels[ConfidenceLevel(r.FusedScore)]++
		ranges[PageRange(r.PageNumber)]++
		for _, c := range ContentCategories(r.Content) {
			cats[c]++
		}
	}

	facets[domain.FacetDocumentType] = sortedBuckets(domain.FacetDocumentType, types, strings.ToUpper)
	facets[domain.FacetConfidenceLevel] = orderedBuckets(domain.FacetConfidenceLevel, levels, confidenceOrder, titleCase)
	facets[domain.FacetPageRange] = orderedBuckets(domain.FacetPageRange, ranges, pageRangeOrder, func(v string) string {
		return "Pages " + v
	})
	facets[domain.FacetContentCategory] = sortedBuckets(domain.FacetContentCategory, cats, titleCase)
	return facets
}

func sortedBuckets(facet string, counts map[string]int, label func(string) string) []domain.FacetBucket {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)
	return orderedBuckets(facet, counts, values, label)
}

func orderedBuckets(facet string, counts map[string]int, order []string, label func(string) string) []domain.FacetBucket {
	buckets := make([]domain.FacetBucket, 0, len(counts))
	for _, v := range order {
		n := counts[v]
		if n == 0 {
			continue
		}
		buckets = append(buckets, domain.FacetBucket{
			Facet: facet,
			Value: v,
			Count: n,
			Label: label(v),
		})
	}
	return buckets
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
