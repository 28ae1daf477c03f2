package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestCategorizeQuery(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"What is the tax policy?", "economic_policy"},
		{"Hiring trends", "employment"},
		{"Small business growth", "business_environment"},
		{"Energy projects", "infrastructure"},
		{"Startup research", "innovation"},
		{"Budget 2024", "finance"},
		{"Export markets", "business_environment"},
		{"global shipping", "trade"},
		{"rural broadband", "regional"},
		{"weather", CategoryGeneral},
		{"", CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeQuery(tt.query))
		})
	}
}

func TestQueryStats_Empty(t *testing.T) {
	stats := NewQueryStats()
	snap := stats.Snapshot()
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, snap.ErrorRate)
	assert.Zero(t, snap.AverageResponseTime)
	assert.Empty(t, snap.TopQueries)
}

func TestQueryStats_Snapshot(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	stats := NewQueryStats(WithClock(clock.Now))

	stats.Record(ctx, "Tax policy", 3, 100*time.Millisecond, false)
	stats.Record(ctx, "tax policy ", 2, 300*time.Millisecond, false)
	stats.Record(ctx, "rural broadband", 0, 200*time.Millisecond, true)
	stats.Record(ctx, "weather", 0, 400*time.Millisecond, false)

	snap := stats.Snapshot()
	assert.Equal(t, 4, snap.TotalQueries)
	assert.Equal(t, 250*time.Millisecond, snap.AverageResponseTime)
	assert.InDelta(t, 0.25, snap.ErrorRate, 1e-9)
	assert.InDelta(t, 4.0/60, snap.QueriesPerMinute, 1e-9)
	require.NotEmpty(t, snap.TopQueries)
	assert.Equal(t, domain.TermCount{Term: "tax policy", Count: 2}, snap.TopQueries[0])
	assert.Equal(t, domain.TermCount{Term: "economic_policy", Count: 2}, snap.TopCategories[0])
	assert.Equal(t, []string{"tax policy", "rural broadband"}, stats.PopularQueries(2))
}

func TestQueryStats_HourWindow(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	stats := NewQueryStats(WithClock(clock.Now))

	stats.Record(ctx, "old failure", 0, time.Second, true)
	clock.Advance(2 * time.Hour)
	stats.Record(ctx, "fresh", 1, 100*time.Millisecond, false)

	snap := stats.Snapshot()
	assert.Equal(t, 2, snap.TotalQueries, "the log outlives the window")
	assert.Zero(t, snap.ErrorRate)
	assert.Equal(t, 100*time.Millisecond, snap.AverageResponseTime)
	assert.InDelta(t, 1.0/60, snap.QueriesPerMinute, 1e-9)
	assert.Len(t, stats.perMinute, 1, "stale minute counters are pruned")
}

func TestQueryStats_PerMinuteWindowIsSixtyBuckets(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	stats := NewQueryStats(WithClock(clock.Now))

	stats.Record(ctx, "edge", 0, 0, false)
	clock.Advance(59 * time.Minute)
	assert.InDelta(t, 1.0/60, stats.Snapshot().QueriesPerMinute, 1e-9)

	clock.Advance(time.Minute)
	assert.Zero(t, stats.Snapshot().QueriesPerMinute)

	stats.Record(ctx, "next", 0, 0, false)
	assert.Len(t, stats.perMinute, 1)
	assert.InDelta(t, 1.0/60, stats.Snapshot().QueriesPerMinute, 1e-9)
}

func TestQueryStats_BoundedLog(t *testing.T) {
	ctx := context.Background()
	stats := NewQueryStats(WithMaxQueryLog(3))
	for _, q := range []string{"a", "b", "c", "d", "e"} {
		stats.Record(ctx, q, 0, 0, false)
	}

	assert.Equal(t, 3, stats.Snapshot().TotalQueries)
	assert.Equal(t, "c", stats.log[0].Query)
}

func TestQueryStats_TruncatesLongQueries(t *testing.T) {
	ctx := context.Background()
	stats := NewQueryStats()
	stats.Record(ctx, strings.Repeat("ü", 500), 0, 0, false)
	assert.Len(t, []rune(stats.log[0].Query), 200)
}

func TestQueryStats_Reset(t *testing.T) {
	ctx := context.Background()
	stats := NewQueryStats()
	stats.Record(ctx, "trade", 1, time.Millisecond, false)
	stats.Reset(ctx)

	snap := stats.Snapshot()
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, snap.QueriesPerMinute)
	assert.Empty(t, stats.PopularQueries(5))
}

func TestQueryStats_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	a, b := NewQueryStats(), NewQueryStats()
	a.Record(ctx, "trade", 1, 0, false)
	assert.Equal(t, 1, a.Snapshot().TotalQueries)
	assert.Zero(t, b.Snapshot().TotalQueries)
}

func TestQueryStats_Concurrent(t *testing.T) {
	ctx := context.Background()
	stats := NewQueryStats()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.Record(ctx, "jobs", 1, time.Millisecond, false)
			_ = stats.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, stats.Snapshot().TotalQueries)
}

// recordingLog is an in-memory driven.QueryLogStore.
type recordingLog struct {
	mu      sync.Mutex
	records []domain.QueryRecord
	err     error
}

func (l *recordingLog) AppendQuery(_ context.Context, r domain.QueryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, r)
	return nil
}

func (l *recordingLog) RecentQueries(_ context.Context, limit int) ([]domain.QueryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := l.records
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]domain.QueryRecord(nil), out...), nil
}

func (l *recordingLog) ClearQueries(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	return l.err
}

func TestQueryStats_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := &recordingLog{}

	first := NewQueryStats(WithClock(clock.Now), WithQueryLog(store))
	first.Record(ctx, "export growth", 3, 20*time.Millisecond, false)
	first.Record(ctx, "export growth", 2, 40*time.Millisecond, false)
	require.Len(t, store.records, 2)

	second := NewQueryStats(WithClock(clock.Now), WithQueryLog(store))
	require.NoError(t, second.Load(context.Background()))

	snap := second.Snapshot()
	assert.Equal(t, 2, snap.TotalQueries)
	assert.Equal(t, 30*time.Millisecond, snap.AverageResponseTime)
	assert.Equal(t, []string{"export growth"}, second.PopularQueries(5))

	second.Reset(ctx)
	assert.Empty(t, store.records)
}

func TestQueryStats_LoadHonoursMaxLog(t *testing.T) {
	clock := newClock()
	store := &recordingLog{}
	for i := 0; i < 5; i++ {
		store.records = append(store.records, domain.QueryRecord{Query: "q", Timestamp: clock.Now()})
	}

	stats := NewQueryStats(WithClock(clock.Now), WithQueryLog(store), WithMaxQueryLog(3))
	require.NoError(t, stats.Load(context.Background()))
	assert.Equal(t, 3, stats.Snapshot().TotalQueries)
}

func TestQueryStats_StoreFailureKeepsMemoryRecord(t *testing.T) {
	ctx := context.Background()
	store := &recordingLog{err: errBackend}
	stats := NewQueryStats(WithQueryLog(store))

	stats.Record(ctx, "trade", 1, 0, false)
	assert.Equal(t, 1, stats.Snapshot().TotalQueries)

	err := stats.Load(context.Background())
	assert.ErrorIs(t, err, errBackend)
}

func TestQueryStats_LoadWithoutStore(t *testing.T) {
	assert.NoError(t, NewQueryStats().Load(context.Background()))
}

// cancelAwareLog fails when the caller's context is already done.
type cancelAwareLog struct {
	recordingLog
}

func (l *cancelAwareLog) AppendQuery(ctx context.Context, r domain.QueryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.recordingLog.AppendQuery(ctx, r)
}

func (l *cancelAwareLog) ClearQueries(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.recordingLog.ClearQueries(ctx)
}

func TestQueryStats_PersistenceHonoursContext(t *testing.T) {
	store := &cancelAwareLog{}
	stats := NewQueryStats(WithQueryLog(store))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	stats.Record(cancelled, "trade", 1, 0, false)
	assert.Empty(t, store.records)
	assert.Equal(t, 1, stats.Snapshot().TotalQueries)

	stats.Record(context.Background(), "trade", 1, 0, false)
	require.Len(t, store.records, 1)

	stats.Reset(cancelled)
	assert.Len(t, store.records, 1, "cancelled reset leaves the persisted log")
	assert.Zero(t, stats.Snapshot().TotalQueries)

	stats.Reset(context.Background())
	assert.Empty(t, store.records)
}
