package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/retrieval"
)

// ftsCandidateFactor widens the FTS5 candidate pool before rescoring.
const (
	ftsCandidateFactor = 5
	ftsMinCandidates   = 50
)

// ==================== Lexical Search ====================

// searchEngine implements driven.SearchEngine on an FTS5 table.
//
// FTS5 selects and orders candidates by bm25; each candidate is then scored
// by the fraction of distinct query words it contains, which keeps scores in
// [0,1] and comparable with the in-memory index.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index adds or replaces chunks in the lexical index.
func (s *searchEngine) Index(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range chunks {
		c := &chunks[i]
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?", c.ID); err != nil {
			return fmt.Errorf("clearing indexed chunk: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks_fts (content, chunk_id, document_id) VALUES (?, ?, ?)
		`, c.Content, c.ID, c.DocumentID); err != nil {
			return fmt.Errorf("indexing chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes all chunks of a document from the lexical index.
func (s *searchEngine) Delete(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks_fts WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting indexed chunks: %w", err)
	}
	return nil
}

// Search matches any query word and scores hits by word coverage.
// Chunks of merged documents are excluded.
func (s *searchEngine) Search(ctx context.Context, query string, limit int) ([]domain.ChunkHit, error) {
	terms := retrieval.Tokens(query)
	if len(terms) == 0 {
		return nil, nil
	}

	candidates := max(limit*ftsCandidateFactor, ftsMinCandidates)
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, d.file_name, c.content, c.page_number
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ? AND d.status = 'active'
		ORDER BY bm25(chunks_fts)
		LIMIT ?
	`, matchExpression(terms), candidates)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	var hits []domain.ChunkHit
	for rows.Next() {
		var chunkID, docID, fileName, content string
		var page sql.NullInt64
		if err := rows.Scan(&chunkID, &docID, &fileName, &content, &page); err != nil {
			return nil, fmt.Errorf("scanning lexical hit: %w", err)
		}
		score := coverage(terms, content)
		if score == 0 {
			continue
		}
		hits = append(hits, chunkHit(chunkID, docID, fileName, content, page, score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lexical hits: %w", err)
	}

	// Stable: equal coverage keeps bm25 order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// matchExpression ORs the quoted terms so FTS5 syntax in queries is inert.
func matchExpression(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func coverage(terms []string, content string) float64 {
	words := make(map[string]struct{})
	for _, w := range retrieval.Tokens(content) {
		words[w] = struct{}{}
	}
	matched := 0
	for _, t := range terms {
		if _, ok := words[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// ==================== Vector Search ====================

// vectorIndex implements driven.VectorIndex with an exhaustive cosine scan.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embeddings of chunks that carry one. The chunks must
// already be saved.
func (v *vectorIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range chunks {
		c := &chunks[i]
		if len(c.Embedding) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (chunk_id, document_id, dimensions, vector)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				document_id = excluded.document_id,
				dimensions = excluded.dimensions,
				vector = excluded.vector
		`, c.ID, c.DocumentID, len(c.Embedding), float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("storing embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes all vectors of a document.
func (v *vectorIndex) Delete(ctx context.Context, documentID string) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	return nil
}

// Search scans vectors of the query's dimensionality in active documents.
func (v *vectorIndex) Search(
	ctx context.Context, query []float32, limit int, threshold float64,
) ([]domain.ChunkHit, error) {
	if len(query) == 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, d.file_name, c.content, c.page_number, e.vector
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN documents d ON d.id = e.document_id
		WHERE d.status = 'active' AND e.dimensions = ?
	`, len(query))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []domain.ChunkHit
	for rows.Next() {
		var chunkID, docID, fileName, content string
		var page sql.NullInt64
		var blob []byte
		if err := rows.Scan(&chunkID, &docID, &fileName, &content, &page, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector hit: %w", err)
		}
		score := retrieval.Cosine(query, bytesToFloat32Slice(blob))
		if score < threshold {
			continue
		}
		hits = append(hits, chunkHit(chunkID, docID, fileName, content, page, min(max(score, 0), 1)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vector hits: %w", err)
	}

	return topHits(hits, limit), nil
}
