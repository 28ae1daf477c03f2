package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// ExactHash returns the hex SHA-256 digest of content, or "" for empty content.
func ExactHash(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ExactMatch reports whether two exact hashes identify the same bytes.
// Empty hashes never match.
func ExactMatch(a, b string) bool {
	return a != "" && a == b
}
