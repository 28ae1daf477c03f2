package fingerprint

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Filename similarity reasons.
const (
	ReasonIdentical        = "Identical base filenames"
	ReasonDifferentVersion = "Same document, different version"
	ReasonDifferentDate    = "Same document, different date"
	ReasonSimilar          = "Similar filename structure"
)

const (
	sameBaseScore    = 0.95
	versionBoost     = 0.2
	versionBoostCap  = 0.9
	versionBaseFloor = 0.8
)

var (
	separatorRe  = regexp.MustCompile(`[-_]+`)
	spaceRe      = regexp.MustCompile(`\s+`)
	versionRe    = regexp.MustCompile(`^(.+?)[-_\s]*v?\d+[-_\s]*(.*)$`)
	versionTokRe = regexp.MustCompile(`v?\d+`)
	dateRe       = regexp.MustCompile(`\d{4}[-_\s]\d{2}[-_\s]\d{2}|\d{2}[-_\s]\d{2}[-_\s]\d{4}`)
)

// NormalizeFilename lowercases a name, strips its extension, turns runs of
// '-' and '_' into spaces and collapses whitespace.
func NormalizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	name = strings.ToLower(filepath.Base(name))
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	name = separatorRe.ReplaceAllString(name, " ")
	return collapse(name)
}

// FilenameSimilarity scores two file names in [0,1].
//
// The base score is a character-level matching ratio of the normalised
// names. Names whose base (the part before any remaining '.') is identical
// score 0.95. Names that both follow a "base + version number" pattern
// with bases at least 0.8 similar get +0.2, capped at 0.9.
func FilenameSimilarity(a, b string) float64 {
	norm1, norm2 := NormalizeFilename(a), NormalizeFilename(b)
	if norm1 == "" || norm2 == "" {
		return 0
	}

	ratio := Ratio(norm1, norm2)

	if baseName(norm1) == baseName(norm2) {
		return sameBaseScore
	}

	m1 := versionRe.FindStringSubmatch(norm1)
	m2 := versionRe.FindStringSubmatch(norm2)
	if m1 != nil && m2 != nil && Ratio(m1[1], m2[1]) > versionBaseFloor {
		return min(versionBoostCap, ratio+versionBoost)
	}

	return ratio
}

// ExplainFilenameSimilarity describes why two file names look alike.
func ExplainFilenameSimilarity(a, b string) string {
	norm1, norm2 := NormalizeFilename(a), NormalizeFilename(b)

	if norm1 == norm2 {
		return ReasonIdentical
	}

	if dateRe.MatchString(norm1) && dateRe.MatchString(norm2) &&
		collapse(dateRe.ReplaceAllString(norm1, " ")) == collapse(dateRe.ReplaceAllString(norm2, " ")) {
		return ReasonDifferentDate
	}

	if collapse(versionTokRe.ReplaceAllString(norm1, " ")) == collapse(versionTokRe.ReplaceAllString(norm2, " ")) {
		return ReasonDifferentVersion
	}

	return ReasonSimilar
}

// Ratio returns the character-level similarity 2*M/T of two strings,
// where M is the number of matched characters and T the total length.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func baseName(norm string) string {
	if i := strings.IndexByte(norm, '.'); i >= 0 {
		return norm[:i]
	}
	return norm
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
