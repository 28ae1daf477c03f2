package chunker

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	pageOfRe     = regexp.MustCompile(`(?i)\bpage \d+ of \d+\b`)
	continuedRe  = regexp.MustCompile(`(?i)continued on next page`)
	seePageRe    = regexp.MustCompile(`(?i)see page \d+`)

	punctuationReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"–", "-", "—", "-",
	)
)

// CleanText normalises extracted text before segmentation: page furniture
// such as "Page 3 of 10" is dropped, typographic quotes and dashes become
// ASCII and whitespace is collapsed to single spaces.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = pageOfRe.ReplaceAllString(text, " ")
	text = continuedRe.ReplaceAllString(text, " ")
	text = seePageRe.ReplaceAllString(text, " ")
	text = punctuationReplacer.Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
