package fingerprint

import (
	"crypto/md5" //nolint:gosec // screening digest, not a security boundary
	"encoding/hex"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// edgeBytes is how much of each end of the content is digested.
const edgeBytes = 1024

// Weights of the structural similarity components.
const (
	prefixWeight = 0.4
	suffixWeight = 0.4
	lengthWeight = 0.2
)

// Structural fingerprints the first and last 1024 bytes plus the length.
// Content of 1024 bytes or less has equal prefix and suffix digests.
func Structural(content []byte) domain.StructuralFingerprint {
	if len(content) == 0 {
		return domain.StructuralFingerprint{}
	}

	prefix := content
	if len(prefix) > edgeBytes {
		prefix = prefix[:edgeBytes]
	}
	suffix := content
	if len(suffix) > edgeBytes {
		suffix = suffix[len(suffix)-edgeBytes:]
	}

	return domain.StructuralFingerprint{
		PrefixDigest: digest(prefix),
		SuffixDigest: digest(suffix),
		Length:       int64(len(content)),
	}
}

// CompareStructural scores two fingerprints in [0,1]:
// 0.4 for equal prefixes, 0.4 for equal suffixes and up to 0.2 for
// closeness in length. Neutral fingerprints score 0.
func CompareStructural(a, b domain.StructuralFingerprint) float64 {
	if a.IsZero() || b.IsZero() || a.Length <= 0 || b.Length <= 0 {
		return 0
	}

	score := 0.0
	if a.PrefixDigest == b.PrefixDigest {
		score += prefixWeight
	}
	if a.SuffixDigest == b.SuffixDigest {
		score += suffixWeight
	}

	diff := a.Length - b.Length
	if diff < 0 {
		diff = -diff
	}
	longest := max(a.Length, b.Length)
	sizeSim := 1 - float64(diff)/float64(longest)
	if sizeSim > 0 {
		score += lengthWeight * sizeSim
	}

	return score
}

func digest(b []byte) string {
	sum := md5.Sum(b) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}
