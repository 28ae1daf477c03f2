package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

func TestExpandQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"empty", "", ""},
		{"no matches", "alberta wheat", "alberta wheat"},
		{"category key", "Economy", "economy economic gdp"},
		{"related term", "jobs report", "jobs workforce report"},
		{"first category wins", "development", "development economic gdp"},
		{"deduplicated", "trade export", "trade export import"},
		{"mixed", "Policy and JOBS", "policy regulation government and jobs workforce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandQuery(tt.query))
		})
	}
}

func TestContentCategories(t *testing.T) {
	assert.Nil(t, ContentCategories(""))
	assert.Equal(t, []string{"trade"}, ContentCategories("Exports grew. EXPORT volumes too."))
	// Substrings inside longer words do not count.
	assert.Empty(t, ContentCategories("lawful techniques"))
	assert.Equal(t, []string{"economy", "innovation"}, ContentCategories("development"))
}

func TestCategories_ReturnsCopy(t *testing.T) {
	c := Categories()
	c[0].Terms[0] = "changed"
	assert.Equal(t, "economic", Categories()[0].Terms[0])
	assert.True(t, IsCategory("trade"))
	assert.False(t, IsCategory("weather"))
}

func TestSuggest_Blank(t *testing.T) {
	assert.Nil(t, Suggest("", nil))
	assert.Nil(t, Suggest("   ", []string{"anything"}))
}

func TestSuggest_CompletionsAndRelatedTerms(t *testing.T) {
	got := Suggest("trade", nil)

	assert.Equal(t, []domain.Suggestion{
		{Text: "What trade opportunities exist for Alberta?", Kind: KindCompletion, Category: "common_query"},
		{Text: "export", Kind: KindRelatedTerm, Category: "trade"},
		{Text: "import", Kind: KindRelatedTerm, Category: "trade"},
		{Text: "commerce", Kind: KindRelatedTerm, Category: "trade"},
	}, got)
}

func TestSuggest_CompletionLimit(t *testing.T) {
	got := Suggest("alberta", nil)

	completions := 0
	for _, s := range got {
		if s.Kind == KindCompletion {
			completions++
		}
	}
	assert.Equal(t, 5, completions)
}

func TestSuggest_CapAndDedup(t *testing.T) {
	// "e" appears in nearly everything.
	got := Suggest("e", []string{"export", "energy prices"})

	assert.Len(t, got, 10)
	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s.Text], s.Text)
		seen[s.Text] = true
	}
}

func TestSuggest_Popular(t *testing.T) {
	got := Suggest("wheat", []string{"Wheat exports 2024", "oil sands"})

	assert.Equal(t, []domain.Suggestion{
		{Text: "Wheat exports 2024", Kind: KindPopular, Category: "popular_query"},
	}, got)
}

func TestHighlights(t *testing.T) {
	content := "Exports rose sharply. Imports were flat. Export credits expanded. " +
		"The export agency grew. Export markets diversified."

	got := Highlights(content, "export")
	assert.Equal(t, []string{
		"Exports rose sharply.",
		"Export credits expanded.",
		"The export agency grew.",
	}, got)

	assert.Nil(t, Highlights(content, ""))
	assert.Nil(t, Highlights("", "export"))
	assert.Empty(t, Highlights(content, "wheat"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"gdp", "growth", "in", "2024"}, Tokens("GDP growth, in 2024; gdp!"))
	assert.Empty(t, Tokens("  ...  "))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}
