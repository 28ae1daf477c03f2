package retrieval

import (
	"strings"

	"github.com/custodia-labs/docsift/internal/postprocessors/chunker"
)

const maxHighlights = 3

// Highlights returns up to three sentences of content that contain at
// least one query word, in document order.
func Highlights(content, query string) []string {
	words := Tokens(query)
	if len(words) == 0 || content == "" {
		return nil
	}

	var out []string
	for _, s := range chunker.SplitSentences(content) {
		lower := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(lower, w) {
				out = append(out, s)
				break
			}
		}
		if len(out) == maxHighlights {
			break
		}
	}
	return out
}
