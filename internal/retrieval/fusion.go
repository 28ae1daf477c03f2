package retrieval

import (
	"sort"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// Fuse merges per-method hit lists into one record per (document, chunk).
//
// Each record keeps the raw score of every method that returned it. When
// a method returns the same chunk twice the higher score is kept. Fused
// scores are not computed here; call Rerank for that. Records are
// returned in first-seen order, semantic hits first.
func Fuse(semanticHits, keywordHits []domain.ChunkHit) []domain.RetrievalHit {
	index := make(map[domain.HitKey]int, len(semanticHits)+len(keywordHits))
	out := make([]domain.RetrievalHit, 0, len(semanticHits)+len(keywordHits))

	add := func(h domain.ChunkHit, method domain.SearchMethod) {
		key := h.Key()
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, domain.RetrievalHit{
				ChunkID:      h.ChunkID,
				DocumentID:   h.DocumentID,
				DocumentName: h.DocumentName,
				Content:      h.Content,
				PageNumber:   copyPage(h.PageNumber),
				MethodScores: map[domain.SearchMethod]float64{method: h.Score},
				Methods:      []domain.SearchMethod{method},
			})
			return
		}

		rec := &out[i]
		if !rec.HasMethod(method) {
			rec.Methods = append(rec.Methods, method)
			rec.MethodScores[method] = h.Score
		} else if h.Score > rec.MethodScores[method] {
			rec.MethodScores[method] = h.Score
		}
		if rec.DocumentName == "" {
			rec.DocumentName = h.DocumentName
		}
		if rec.Content == "" {
			rec.Content = h.Content
		}
		if rec.PageNumber == nil {
			rec.PageNumber = copyPage(h.PageNumber)
		}
	}

	for _, h := range semanticHits {
		add(h, domain.MethodSemantic)
	}
	for _, h := range keywordHits {
		add(h, domain.MethodKeyword)
	}
	return out
}

// FusedScore combines the per-method scores of a hit. Agreement between
// methods multiplies the weighted sum by the corroboration bonus.
func FusedScore(h *domain.RetrievalHit, w domain.FusionWeights) float64 {
	score := w.Semantic*h.Score(domain.MethodSemantic) + w.Keyword*h.Score(domain.MethodKeyword)
	if len(h.Methods) > 1 {
		score *= w.CorroborationBonus
	}
	return score
}

// Rerank sets FusedScore on every hit and sorts them: fused score
// descending, then semantic score descending, then chunk ID and document
// ID ascending. The input slice is reordered in place and returned.
func Rerank(hits []domain.RetrievalHit, w domain.FusionWeights) []domain.RetrievalHit {
	for i := range hits {
		hits[i].FusedScore = FusedScore(&hits[i], w)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return less(&hits[i], &hits[j])
	})
	return hits
}

func less(a, b *domain.RetrievalHit) bool {
	if a.FusedScore != b.FusedScore {
		return a.FusedScore > b.FusedScore
	}
	sa, sb := a.Score(domain.MethodSemantic), b.Score(domain.MethodSemantic)
	if sa != sb {
		return sa > sb
	}
	if a.ChunkID != b.ChunkID {
		return a.ChunkID < b.ChunkID
	}
	return a.DocumentID < b.DocumentID
}

// Truncate returns at most limit hits. A non-positive limit keeps all.
func Truncate(hits []domain.RetrievalHit, limit int) []domain.RetrievalHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}

// FuseAndRank runs Fuse, Rerank and Truncate in that order. Truncation
// always happens after ranking so a chunk strong in only one method is
// not dropped early.
func FuseAndRank(semanticHits, keywordHits []domain.ChunkHit, w domain.FusionWeights, limit int) []domain.RetrievalHit {
	return Truncate(Rerank(Fuse(semanticHits, keywordHits), w), limit)
}

func copyPage(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
