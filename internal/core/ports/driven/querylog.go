package driven

import (
	"context"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// QueryLogStore persists search activity across process runs.
type QueryLogStore interface {
	// AppendQuery records one search request.
	AppendQuery(ctx context.Context, record domain.QueryRecord) error

	// RecentQueries returns up to limit of the newest records, oldest first.
	RecentQueries(ctx context.Context, limit int) ([]domain.QueryRecord, error)

	// ClearQueries removes every record.
	ClearQueries(ctx context.Context) error
}
