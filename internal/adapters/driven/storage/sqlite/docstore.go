package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

const documentColumns = `id, file_name, title, content_type, file_size, page_count, status, merged_into,
	exact_hash, prefix_digest, suffix_digest, content_length, metadata, created_at, updated_at`

const chunkColumns = `id, document_id, chunk_index, page_number, content, char_count, word_count,
	sentence_count, overlap_sentences, content_hash, embedding, metadata`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("save document: missing id: %w", domain.ErrInvalidInput)
	}
	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}
	status := doc.Status
	if status == "" {
		status = domain.StatusActive
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			title = excluded.title,
			content_type = excluded.content_type,
			file_size = excluded.file_size,
			page_count = excluded.page_count,
			status = excluded.status,
			merged_into = excluded.merged_into,
			exact_hash = excluded.exact_hash,
			prefix_digest = excluded.prefix_digest,
			suffix_digest = excluded.suffix_digest,
			content_length = excluded.content_length,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.FileName, doc.Title, doc.ContentType, doc.FileSize, doc.PageCount,
		string(status), nullString(doc.MergedInto), doc.ExactHash,
		doc.Fingerprint.PrefixDigest, doc.Fingerprint.SuffixDigest, doc.Fingerprint.Length,
		metadataJSON, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks replaces the chunks of the documents they belong to.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cleared := make(map[string]bool)
	for _, c := range chunks {
		if cleared[c.DocumentID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", c.DocumentID); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
		cleared[c.DocumentID] = true
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		metadataJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		var page any
		if c.PageNumber != nil {
			page = *c.PageNumber
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Index, page, c.Content,
			c.CharCount, c.WordCount, c.SentenceCount, c.OverlapSentences, c.ContentHash,
			float32SliceToBytes(c.Embedding), metadataJSON); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

// DeleteDocument removes a document. Chunks and embeddings cascade; a
// trigger clears the lexical index.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
}

// FindByExactHash returns the oldest active document with the given digest.
func (s *documentStore) FindByExactHash(ctx context.Context, hash string) (*domain.Document, error) {
	if hash == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE exact_hash = ? AND status = 'active'
		ORDER BY created_at, id LIMIT 1
	`, hash)
	return scanDocument(row)
}

// ListFilenames returns (id, file name) pairs of active documents.
func (s *documentStore) ListFilenames(ctx context.Context) ([]driven.DocumentRef, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, file_name FROM documents
		WHERE status = 'active'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying filenames: %w", err)
	}
	defer rows.Close()

	var refs []driven.DocumentRef //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ref driven.DocumentRef
		if err := rows.Scan(&ref.ID, &ref.FileName); err != nil {
			return nil, fmt.Errorf("scanning filename: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating filenames: %w", err)
	}
	return refs, nil
}

// ListWithMetadata returns active documents.
func (s *documentStore) ListWithMetadata(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status = 'active'
		ORDER BY created_at, id
	`)
}

// UpdateStatus sets the lifecycle status and merge back-reference.
func (s *documentStore) UpdateStatus(
	ctx context.Context, id string, status domain.DocumentStatus, mergedInto *string,
) error {
	if !status.IsValid() {
		return fmt.Errorf("update status %q: %w", status, domain.ErrInvalidInput)
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, merged_into = ?, updated_at = ? WHERE id = ?
	`, string(status), nullString(mergedInto), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return requireAffected(res)
}

// UpdateMetadata merges patch into the document's metadata.
func (s *documentStore) UpdateMetadata(ctx context.Context, id string, patch map[string]any) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := patchMetadata(ctx, tx, id, patch, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MergeDocuments applies a merge in one transaction. A missing document
// or a secondary that is no longer active rolls back every change.
func (s *documentStore) MergeDocuments(ctx context.Context, req driven.MergeRequest) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := patchMetadata(ctx, tx, req.PrimaryID, req.PrimaryPatch, req.MergedAt); err != nil {
		return fmt.Errorf("primary %s: %w", req.PrimaryID, err)
	}

	for _, id := range req.SecondaryIDs {
		patch := map[string]any{
			"merged_into": req.PrimaryID,
			"merge_date":  req.MergedAt.Format(time.RFC3339),
		}
		if err := patchMetadata(ctx, tx, id, patch, req.MergedAt); err != nil {
			return fmt.Errorf("secondary %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE documents SET status = ?, merged_into = ? WHERE id = ? AND status = ?
		`, string(domain.StatusMerged), req.PrimaryID, id, string(domain.StatusActive))
		if err != nil {
			return fmt.Errorf("secondary %s: updating status: %w", id, err)
		}
		// The row exists, so no match means another merge got there first.
		if err := requireAffected(res); errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("secondary %s is not active: %w", id, domain.ErrMergeConflict)
		} else if err != nil {
			return fmt.Errorf("secondary %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing merge: %w", err)
	}
	return nil
}

func (s *documentStore) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// patchMetadata merges patch into a document's metadata inside tx.
func patchMetadata(ctx context.Context, tx *sql.Tx, id string, patch map[string]any, at time.Time) error {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT metadata FROM documents WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}

	meta, err := unmarshalMetadata(raw)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		meta[k] = v
	}
	encoded, err := marshalMetadata(meta)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET metadata = ?, updated_at = ? WHERE id = ?
	`, encoded, at, id); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string
	var mergedInto sql.NullString

	if err := row.Scan(&doc.ID, &doc.FileName, &doc.Title, &doc.ContentType, &doc.FileSize,
		&doc.PageCount, &status, &mergedInto, &doc.ExactHash,
		&doc.Fingerprint.PrefixDigest, &doc.Fingerprint.SuffixDigest, &doc.Fingerprint.Length,
		&metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if mergedInto.Valid {
		doc.MergedInto = &mergedInto.String
	}

	meta, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, err
	}
	doc.Metadata = meta

	return &doc, nil
}

// scanChunk scans a single chunk row.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var page sql.NullInt64
	var embedding []byte
	var metadataJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &page, &chunk.Content,
		&chunk.CharCount, &chunk.WordCount, &chunk.SentenceCount, &chunk.OverlapSentences,
		&chunk.ContentHash, &embedding, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if page.Valid {
		chunk.PageNumber = domain.PageRef(int(page.Int64))
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)

	meta, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, err
	}
	chunk.Metadata = meta

	return &chunk, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
