package domain

// Facet names.
const (
	FacetDocumentType    = "document_type"
	FacetConfidenceLevel = "confidence_level"
	FacetPageRange       = "page_range"
	FacetContentCategory = "content_category"
)

// FacetNames lists every facet in presentation order.
func FacetNames() []string {
	return []string{FacetDocumentType, FacetConfidenceLevel, FacetPageRange, FacetContentCategory}
}

// FacetBucket is a categorical count over a result set.
// Buckets are recomputed from scratch on every facet generation.
type FacetBucket struct {
	// Facet is the facet this bucket belongs to.
	Facet string

	// Value is the bucket key used for filtering.
	Value string

	// Count is the number of results in the bucket.
	Count int

	// Label is the display label.
	Label string
}

// FacetSet maps a facet name to its ordered buckets.
type FacetSet map[string][]FacetBucket

// Total returns the sum of bucket counts for a facet.
func (s FacetSet) Total(facet string) int {
	total := 0
	for _, b := range s[facet] {
		total += b.Count
	}
	return total
}
