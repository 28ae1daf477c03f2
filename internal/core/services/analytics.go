package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure QueryStats implements the interface.
var _ driving.QueryStatsService = (*QueryStats)(nil)

const (
	// DefaultMaxQueryLog is how many query records are retained.
	DefaultMaxQueryLog = 10000

	maxQueryLength = 200
	topQueryLimit  = 10
	statsWindow    = time.Hour
	windowMinutes  = 60

	// CategoryGeneral is used when no topic keyword matches.
	CategoryGeneral = "general"
)

// queryCategories is ordered; the first category with a keyword found
// anywhere in the query wins.
var queryCategories = []struct {
	name     string
	keywords []string
}{
	{"economic_policy", []string{"policy", "regulation", "government", "tax", "incentive"}},
	{"employment", []string{"jobs", "hiring", "workforce", "employment", "skills", "training"}},
	{"business_environment", []string{"business", "industry", "market", "competition", "growth"}},
	{"infrastructure", []string{"infrastructure", "transportation", "energy", "utilities"}},
	{"innovation", []string{"technology", "innovation", "research", "development", "startup"}},
	{"finance", []string{"investment", "funding", "capital", "finance", "budget"}},
	{"trade", []string{"trade", "export", "import", "international", "global"}},
	{"regional", []string{"region", "local", "community", "rural", "urban"}},
}

// CategorizeQuery assigns a query to a business topic.
func CategorizeQuery(query string) string {
	q := strings.ToLower(query)
	for _, c := range queryCategories {
		for _, kw := range c.keywords {
			if strings.Contains(q, kw) {
				return c.name
			}
		}
	}
	return CategoryGeneral
}

// QueryStatsOption configures a QueryStats.
type QueryStatsOption func(*QueryStats)

// WithClock sets the time source.
func WithClock(now func() time.Time) QueryStatsOption {
	return func(q *QueryStats) {
		q.now = now
	}
}

// WithMaxQueryLog sets how many records are retained.
func WithMaxQueryLog(n int) QueryStatsOption {
	return func(q *QueryStats) {
		if n > 0 {
			q.maxLog = n
		}
	}
}

// WithQueryLog persists every record to store. Call Load to restore
// earlier records.
func WithQueryLog(store driven.QueryLogStore) QueryStatsOption {
	return func(q *QueryStats) {
		q.store = store
	}
}

// QueryStats records search activity. It is constructed explicitly and
// injected where needed; there is no package-level instance.
type QueryStats struct {
	mu        sync.Mutex
	now       func() time.Time
	maxLog    int
	store     driven.QueryLogStore
	log       []domain.QueryRecord
	perMinute map[int64]int
}

// NewQueryStats creates an empty query log.
func NewQueryStats(opts ...QueryStatsOption) *QueryStats {
	q := &QueryStats{
		now:       time.Now,
		maxLog:    DefaultMaxQueryLog,
		perMinute: make(map[int64]int),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Load restores retained records from the query log store.
func (q *QueryStats) Load(ctx context.Context) error {
	if q.store == nil {
		return nil
	}
	records, err := q.store.RecentQueries(ctx, q.maxLog)
	if err != nil {
		return fmt.Errorf("load query log: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.log = nil
	q.perMinute = make(map[int64]int)
	for _, r := range records {
		q.appendLocked(r)
	}
	return nil
}

// Record logs one search request. A store failure is logged; the
// in-memory record is kept.
func (q *QueryStats) Record(ctx context.Context, query string, resultCount int, responseTime time.Duration, failed bool) {
	if r := []rune(query); len(r) > maxQueryLength {
		query = string(r[:maxQueryLength])
	}

	q.mu.Lock()
	record := domain.QueryRecord{
		Query:        query,
		Category:     CategorizeQuery(query),
		ResultCount:  resultCount,
		ResponseTime: responseTime,
		Failed:       failed,
		Timestamp:    q.now(),
	}
	q.appendLocked(record)
	store := q.store
	q.mu.Unlock()

	if store != nil {
		if err := store.AppendQuery(ctx, record); err != nil {
			logger.Warn("Failed to persist query record: %v", err)
		}
	}
}

func (q *QueryStats) appendLocked(r domain.QueryRecord) {
	q.log = append(q.log, r)
	if len(q.log) > q.maxLog {
		q.log = append([]domain.QueryRecord(nil), q.log[len(q.log)-q.maxLog:]...)
	}

	minute := r.Timestamp.Unix() / 60
	q.perMinute[minute]++
	latest := q.now().Unix() / 60
	for m := range q.perMinute {
		if m <= latest-windowMinutes {
			delete(q.perMinute, m)
		}
	}
}

// Snapshot summarises the retained log. Rates and latency cover the last hour.
func (q *QueryStats) Snapshot() domain.QueryStatsSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	snap := domain.QueryStatsSnapshot{TotalQueries: len(q.log)}

	cutoff := now.Add(-statsWindow)
	var recent, failed int
	var latency time.Duration
	categories := make(map[string]int)
	queries := make(map[string]int)
	for _, r := range q.log {
		categories[r.Category]++
		queries[strings.ToLower(strings.TrimSpace(r.Query))]++
		if r.Timestamp.After(cutoff) {
			recent++
			latency += r.ResponseTime
			if r.Failed {
				failed++
			}
		}
	}
	if recent > 0 {
		snap.AverageResponseTime = latency / time.Duration(recent)
		snap.ErrorRate = float64(failed) / float64(recent)
	}

	minute := now.Unix() / 60
	perMinute := 0
	for m, n := range q.perMinute {
		if m > minute-windowMinutes {
			perMinute += n
		}
	}
	snap.QueriesPerMinute = float64(perMinute) / windowMinutes

	snap.TopCategories = rank(categories, 0)
	delete(queries, "")
	snap.TopQueries = rank(queries, topQueryLimit)
	return snap
}

// PopularQueries returns up to n of the most frequent queries.
func (q *QueryStats) PopularQueries(n int) []string {
	top := q.Snapshot().TopQueries
	out := make([]string, 0, min(n, len(top)))
	for _, c := range top {
		if len(out) == n {
			break
		}
		out = append(out, c.Term)
	}
	return out
}

// Reset clears the log and counters, including persisted records.
func (q *QueryStats) Reset(ctx context.Context) {
	q.mu.Lock()
	q.log = nil
	q.perMinute = make(map[int64]int)
	store := q.store
	q.mu.Unlock()

	if store != nil {
		if err := store.ClearQueries(ctx); err != nil {
			logger.Warn("Failed to clear query log: %v", err)
		}
	}
}

func rank(counts map[string]int, limit int) []domain.TermCount {
	out := make([]domain.TermCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.TermCount{Term: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
