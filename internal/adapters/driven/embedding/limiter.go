// Package embedding holds helpers shared by the embedding service adapters.
package embedding

import "golang.org/x/time/rate"

// NewLimiter returns a limiter allowing requestsPerSecond with a burst of
// one second's worth of requests. Zero or negative means unlimited.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
