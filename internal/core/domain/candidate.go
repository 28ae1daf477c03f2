package domain

// StructuralFingerprint is a cheap summary of byte content: digests of
// the first and last 1024 bytes plus the total length.
type StructuralFingerprint struct {
	// PrefixDigest is the digest of the first 1024 bytes.
	PrefixDigest string

	// SuffixDigest is the digest of the last 1024 bytes.
	SuffixDigest string

	// Length is the total byte length.
	Length int64
}

// IsZero reports whether the fingerprint is the neutral, non-matching value.
func (f StructuralFingerprint) IsZero() bool {
	return f.PrefixDigest == "" && f.SuffixDigest == "" && f.Length == 0
}

// DocumentCandidate is a document proposed for ingestion, not yet accepted.
// Fingerprints are derived once when the candidate is built.
type DocumentCandidate struct {
	// FileName is the original file name.
	FileName string

	// RawBytes is the full file content.
	RawBytes []byte

	// ExtractedText is the text extracted from RawBytes, empty when unavailable.
	ExtractedText string

	// ExactHash is the digest of RawBytes.
	ExactHash string

	// Fingerprint is the structural fingerprint of RawBytes.
	Fingerprint StructuralFingerprint

	// SemanticVector is an embedding of ExtractedText, nil when unavailable.
	SemanticVector []float32
}

// HasText reports whether extracted text is available for semantic matching.
func (c *DocumentCandidate) HasText() bool {
	return c.ExtractedText != ""
}
