package retrieval

import (
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// Suggestion kinds.
const (
	KindCompletion  = "completion"
	KindRelatedTerm = "related_term"
	KindPopular     = "popular"
)

const (
	maxCompletions   = 5
	maxSuggestions   = 10
	relatedTermCount = 3

	categoryCommonQuery = "common_query"
	categoryPopular     = "popular_query"
)

var commonQueries = []string{
	"What are the main economic priorities for Alberta?",
	"How is Alberta supporting small businesses?",
	"What are the employment trends in Alberta?",
	"What trade opportunities exist for Alberta?",
	"How is Alberta promoting innovation?",
	"What infrastructure projects are planned?",
	"What are the key policy changes affecting business?",
	"How is Alberta diversifying its economy?",
}

// Suggest offers completions for a partially typed query: up to five
// common queries containing it, the first three terms of every category
// it appears in, then any popular queries containing it. Suggestions are
// de-duplicated by text and capped at ten.
func Suggest(partial string, popular []string) []domain.Suggestion {
	p := strings.ToLower(strings.TrimSpace(partial))
	if p == "" {
		return nil
	}

	var all []domain.Suggestion
	completions := 0
	for _, q := range commonQueries {
		if completions == maxCompletions {
			break
		}
		if strings.Contains(strings.ToLower(q), p) {
			all = append(all, domain.Suggestion{Text: q, Kind: KindCompletion, Category: categoryCommonQuery})
			completions++
		}
	}

	for _, c := range categories {
		if !categoryMentions(c, p) {
			continue
		}
		for _, t := range c.Terms[:min(relatedTermCount, len(c.Terms))] {
			all = append(all, domain.Suggestion{Text: t, Kind: KindRelatedTerm, Category: c.Key})
		}
	}

	for _, q := range popular {
		if strings.Contains(strings.ToLower(q), p) {
			all = append(all, domain.Suggestion{Text: q, Kind: KindPopular, Category: categoryPopular})
		}
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]domain.Suggestion, 0, min(len(all), maxSuggestions))
	for _, s := range all {
		if _, ok := seen[s.Text]; ok {
			continue
		}
		seen[s.Text] = struct{}{}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func categoryMentions(c Category, partial string) bool {
	if strings.Contains(c.Key, partial) {
		return true
	}
	for _, t := range c.Terms {
		if strings.Contains(t, partial) {
			return true
		}
	}
	return false
}
