package fingerprint

import "github.com/custodia-labs/docsift/internal/core/domain"

// NewCandidate builds a candidate with its exact and structural
// fingerprints derived once. The semantic vector is supplied later by
// whoever owns an embedding service.
func NewCandidate(fileName string, raw []byte, extractedText string) *domain.DocumentCandidate {
	return &domain.DocumentCandidate{
		FileName:      fileName,
		RawBytes:      raw,
		ExtractedText: extractedText,
		ExactHash:     ExactHash(raw),
		Fingerprint:   Structural(raw),
	}
}
