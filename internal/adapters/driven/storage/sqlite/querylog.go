package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// queryLogStore implements driven.QueryLogStore.
type queryLogStore struct {
	store *Store
}

var _ driven.QueryLogStore = (*queryLogStore)(nil)

// AppendQuery records one search request.
func (q *queryLogStore) AppendQuery(ctx context.Context, r domain.QueryRecord) error {
	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO query_log (query, category, result_count, response_time_ns, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Query, r.Category, r.ResultCount, int64(r.ResponseTime), r.Failed, r.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("appending query: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit of the newest records, oldest first.
func (q *queryLogStore) RecentQueries(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	rows, err := q.store.db.QueryContext(ctx, `
		SELECT query, category, result_count, response_time_ns, failed, created_at
		FROM (SELECT * FROM query_log ORDER BY id DESC LIMIT ?)
		ORDER BY id
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query log: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.QueryRecord
		var nanos int64
		if err := rows.Scan(&r.Query, &r.Category, &r.ResultCount, &nanos, &r.Failed, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning query record: %w", err)
		}
		r.ResponseTime = time.Duration(nanos)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query log: %w", err)
	}
	return records, nil
}

// ClearQueries removes every record.
func (q *queryLogStore) ClearQueries(ctx context.Context) error {
	if _, err := q.store.db.ExecContext(ctx, "DELETE FROM query_log"); err != nil {
		return fmt.Errorf("clearing query log: %w", err)
	}
	return nil
}
