package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit handling.
var (
	geoRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_rate_limited_total",
		Help: "Total number of 429 responses received from the geocoding service",
	})

	geoRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_rate_limit_wait_seconds",
		Help:    "Server-dictated wait before retrying after a 429",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// Stats summarizes the rate limiting observed during a run.
type Stats struct {
	Responses int
	TotalWait time.Duration
	MaxWait   time.Duration
}

// Tracker wraps RetryAfter with logging, metrics and per-run totals.
// It is safe for concurrent use.
type Tracker struct {
	logger zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Observe inspects a response for the entity. It returns the wait and true
// for a 429, recording it; otherwise (0, false). An HTTP-date Retry-After is
// measured from now.
func (t *Tracker) Observe(entity string, status int, header http.Header, now time.Time) (time.Duration, bool) {
	wait, limited := RetryAfterAt(status, header, now)
	if !limited {
		return 0, false
	}

	t.mu.Lock()
	t.stats.Responses++
	t.stats.TotalWait += wait
	if wait > t.stats.MaxWait {
		t.stats.MaxWait = wait
	}
	t.mu.Unlock()

	geoRateLimitedTotal.Inc()
	geoRateLimitWaitSeconds.Observe(wait.Seconds())

	t.logger.Warn().
		Str("entity", entity).
		Str("retry_after", header.Get(HeaderRetryAfter)).
		Dur("wait", wait).
		Msg("Too many requests, waiting")

	return wait, true
}

// Stats returns a snapshot of the totals recorded so far.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
