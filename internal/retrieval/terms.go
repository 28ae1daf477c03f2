package retrieval

import (
	"regexp"
	"strings"
)

// Category is a topic with its related vocabulary. The category key is
// also the value reported by the content_category facet.
type Category struct {
	Key   string
	Terms []string
}

// categories is ordered; expansion stops at the first match.
var categories = []Category{
	{Key: "economy", Terms: []string{"economic", "gdp", "growth", "development", "prosperity"}},
	{Key: "business", Terms: []string{"industry", "commercial", "enterprise", "company", "corporation"}},
	{Key: "employment", Terms: []string{"jobs", "workforce", "hiring", "career", "unemployment"}},
	{Key: "investment", Terms: []string{"funding", "capital", "finance", "venture", "equity"}},
	{Key: "policy", Terms: []string{"regulation", "government", "legislation", "law", "governance"}},
	{Key: "trade", Terms: []string{"export", "import", "commerce", "international", "global"}},
	{Key: "innovation", Terms: []string{"technology", "research", "development", "startup", "tech"}},
	{Key: "infrastructure", Terms: []string{"transportation", "utilities", "energy", "construction"}},
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Categories returns a copy of the category table in match order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Key: c.Key, Terms: append([]string(nil), c.Terms...)}
	}
	return out
}

// IsCategory reports whether key names a known content category.
func IsCategory(key string) bool {
	for _, c := range categories {
		if c.Key == key {
			return true
		}
	}
	return false
}

// contains reports whether word is the category key or one of its terms.
func (c Category) contains(word string) bool {
	if word == c.Key {
		return true
	}
	for _, t := range c.Terms {
		if t == word {
			return true
		}
	}
	return false
}

// ContentCategories returns every category whose key or a related term
// appears as a whole word in content, in table order.
func ContentCategories(content string) []string {
	if content == "" {
		return nil
	}
	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(content), -1) {
		words[w] = struct{}{}
	}

	var out []string
	for _, c := range categories {
		if _, ok := words[c.Key]; ok {
			out = append(out, c.Key)
			continue
		}
		for _, t := range c.Terms {
			if _, ok := words[t]; ok {
				out = append(out, c.Key)
				break
			}
		}
	}
	return out
}

// Tokens returns the distinct lowercase words of s in first-seen order.
func Tokens(s string) []string {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
