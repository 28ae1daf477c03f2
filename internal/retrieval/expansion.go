package retrieval

import "strings"

// expansionTerms is how many related terms a matched word contributes.
const expansionTerms = 2

// ExpandQuery lowercases the query and appends, after each word that
// names a category or one of its terms, the first two related terms of
// that category. Duplicates are removed keeping the first occurrence.
func ExpandQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(words)*3)
	terms := make([]string, 0, len(words)*3)
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, w := range words {
		add(w)
		for _, c := range categories {
			if c.contains(w) {
				for _, t := range c.Terms[:min(expansionTerms, len(c.Terms))] {
					add(t)
				}
				break
			}
		}
	}
	return strings.Join(terms, " ")
}
