package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// sentence returns a sentence of exactly n characters ending with a period.
func sentence(n int) string {
	return "S" + strings.Repeat("a", n-2) + "."
}

// reconstruct joins chunk contents after dropping each chunk's carried sentences.
func reconstruct(chunks []domain.Chunk) string {
	var parts []string
	for _, c := range chunks {
		sentences := SplitSentences(c.Content)
		parts = append(parts, sentences[c.OverlapSentences:]...)
	}
	return strings.Join(parts, " ")
}

func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sharedSentences(prev, next domain.Chunk) int {
	a := SplitSentences(prev.Content)
	b := SplitSentences(next.Content)
	shared := 0
	for k := 1; k <= len(a) && k <= len(b); k++ {
		if strings.Join(a[len(a)-k:], " ") == strings.Join(b[:k], " ") {
			shared = k
		}
	}
	return shared
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t ", nil},
		{"single without punctuation", "hello world", []string{"hello world"}},
		{"mixed terminators", "One. Two! Three? Four", []string{"One.", "Two!", "Three?", "Four"}},
		{"decimal is not a boundary", "GDP grew 2.5 percent. Then fell.", []string{"GDP grew 2.5 percent.", "Then fell."}},
		{"newline boundary", "First line.\nSecond line.", []string{"First line.", "Second line."}},
		{"trailing punctuation", "Done.", []string{"Done."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitSentences(tt.text))
		})
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	assert.Empty(t, Segment("", nil, 100, 30))
	assert.Empty(t, Segment("   \n\t", nil, 100, 30))
}

func TestSegment_OverlapScenario(t *testing.T) {
	// 250 characters in five sentences.
	text := strings.Join([]string{sentence(74), sentence(24), sentence(50), sentence(24), sentence(74)}, " ")
	require.Equal(t, 250, len(text))

	chunks := Segment(text, nil, 100, 30)

	require.GreaterOrEqual(t, len(chunks), 3)
	for i := 0; i+1 < len(chunks); i++ {
		assert.GreaterOrEqual(t, sharedSentences(chunks[i], chunks[i+1]), 1, "chunk %d should share a sentence with its successor", i)
	}
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.CharCount, 100)
	}
}

func TestSegment_OverlapCappedAtHalf(t *testing.T) {
	// Very short sentences with an overlap budget larger than the chunk.
	parts := make([]string, 40)
	for i := range parts {
		parts[i] = "Go."
	}
	text := strings.Join(parts, " ")

	chunks := Segment(text, nil, 20, 500)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].OverlapSentences*2, chunks[i-1].SentenceCount)
	}
	assert.Equal(t, normalise(text), reconstruct(chunks))
}

func TestSegment_OverlapNotLargerThanChunkTerminates(t *testing.T) {
	text := strings.Repeat("Alberta invests in infrastructure. ", 50)

	chunks := Segment(text, nil, 80, 80)

	require.NotEmpty(t, chunks)
	assert.Equal(t, normalise(text), reconstruct(chunks))
}

func TestSegment_LongSentenceIsOwnChunk(t *testing.T) {
	long := sentence(250)
	text := sentence(20) + " " + long + " " + sentence(20)

	chunks := Segment(text, nil, 100, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, long, chunks[1].Content)
	assert.Equal(t, 250, chunks[1].CharCount)
}

func TestSegment_SizeBound(t *testing.T) {
	lengths := []int{12, 45, 33, 80, 9, 61, 150, 27, 38, 44, 19, 72}
	parts := make([]string, len(lengths))
	for i, n := range lengths {
		parts[i] = sentence(n)
	}
	text := strings.Join(parts, " ")

	for _, cfg := range [][2]int{{100, 30}, {100, 0}, {60, 60}, {200, 50}, {50, 200}} {
		chunks := Segment(text, nil, cfg[0], cfg[1])
		for _, c := range chunks {
			if c.SentenceCount > 1 {
				assert.LessOrEqual(t, c.CharCount, cfg[0], "size=%d overlap=%d", cfg[0], cfg[1])
			}
		}
		assert.Equal(t, normalise(text), reconstruct(chunks), "size=%d overlap=%d", cfg[0], cfg[1])
	}
}

func TestSegment_ShedsCarryThatCannotFit(t *testing.T) {
	text := strings.Join([]string{sentence(40), sentence(40), sentence(90)}, " ")

	chunks := Segment(text, nil, 100, 45)

	require.Len(t, chunks, 2)
	assert.Equal(t, 2, chunks[0].SentenceCount)
	assert.Equal(t, 0, chunks[1].OverlapSentences)
	assert.Equal(t, sentence(90), chunks[1].Content)
}

func TestSegment_ChunkFields(t *testing.T) {
	page := 4
	text := "Alberta's economy grew. Employment rose sharply!"

	chunks := Segment(text, &page, 1000, 200)

	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, text, c.Content)
	assert.Equal(t, 0, c.Index)
	require.NotNil(t, c.PageNumber)
	assert.Equal(t, 4, *c.PageNumber)
	assert.NotSame(t, &page, c.PageNumber)
	assert.Equal(t, utf8.RuneCountInString(text), c.CharCount)
	assert.Equal(t, 6, c.WordCount)
	assert.Equal(t, 2, c.SentenceCount)
	assert.Equal(t, ContentHash(text), c.ContentHash)
	assert.Len(t, c.ContentHash, 32)
}

func TestSegment_Deterministic(t *testing.T) {
	text := strings.Repeat("Trade volumes increased. Exports diversified? Yes! ", 20)

	a := Segment(text, nil, 120, 40)
	b := Segment(text, nil, 120, 40)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Content, b[i].Content)
		assert.Equal(t, a[i].ContentHash, b[i].ContentHash)
	}
}

func TestSegment_NoCarryWithoutOverlap(t *testing.T) {
	text := strings.Join([]string{sentence(60), sentence(60), sentence(60)}, " ")

	chunks := Segment(text, nil, 100, 0)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Zero(t, c.OverlapSentences)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "a  b\n\n\tc", "a b c"},
		{"drops page of", "Intro. Page 3 of 10 Body.", "Intro. Body."},
		{"drops continued", "Table continued on next page more", "Table more"},
		{"drops see page", "Details (see page 12).", "Details ( )."},
		{"normalises quotes", "“Quoted” and ‘single’", `"Quoted" and 'single'`},
		{"normalises dashes", "2019–2020 — growth", "2019-2020 - growth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
