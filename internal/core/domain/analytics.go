package domain

import "time"

// QueryRecord is one logged search request.
type QueryRecord struct {
	Query        string
	Category     string
	ResultCount  int
	ResponseTime time.Duration
	Failed       bool
	Timestamp    time.Time
}

// TermCount pairs a query category or query text with how often it was seen.
type TermCount struct {
	Term  string
	Count int
}

// QueryStatsSnapshot summarises recent search activity.
type QueryStatsSnapshot struct {
	// TotalQueries is the number of retained records.
	TotalQueries int

	// QueriesPerMinute is averaged over the last hour.
	QueriesPerMinute float64

	// AverageResponseTime covers queries in the last hour.
	AverageResponseTime time.Duration

	// ErrorRate is the failed fraction in the last hour.
	ErrorRate float64

	// TopCategories is ordered by count descending.
	TopCategories []TermCount

	// TopQueries is ordered by count descending.
	TopQueries []TermCount
}
