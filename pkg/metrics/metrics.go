// Package metrics provides the /metrics endpoint for
// the geocoding fetcher. All metrics are defined in their respective packages
// (client, ratelimit, fetch, store) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer is the registry the /metrics endpoint serves. Metrics register
// themselves into it via promauto in their respective packages.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - geo_requests_total{status} (Counter): Geocoder requests by HTTP status ("transport_error" for transport failures)
//   - geo_request_duration_seconds (Histogram): Geocoder request duration
//   - geo_errors_total{class} (Counter): Failed attempts by class (http, rate_limit, transport)
//
// Retry Metrics (pkg/client):
//   - geo_retries_total{error_class} (Counter): Retry attempts by error class
//   - geo_retry_backoff_seconds{error_class} (Histogram): Wait before the next attempt
//   - geo_retry_exhausted_total (Counter): Entities that spent their whole attempt budget
//   - geo_outcomes_total{kind} (Counter): Terminal outcomes (success, not_found, error)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - geo_rate_limited_total (Counter): 429 responses received
//   - geo_rate_limit_wait_seconds (Histogram): Retry-After waits applied
//
// Fetch Metrics (pkg/fetch):
//   - geo_gate_in_flight (Gauge): Permits currently held
//   - geo_gate_wait_seconds (Histogram): Time spent waiting for a permit
//   - geo_entities_total{kind} (Counter): Entities completed by outcome kind
//   - geo_run_duration_seconds (Histogram): Wall time of a complete run
//
// Store Metrics (pkg/store):
//   - geo_store_writes_total{sink} (Counter): Successful saves by sink
//   - geo_store_entries_total{sink} (Counter): Entries written by sink
//   - geo_store_errors_total{sink, operation} (Counter): Store operation errors
//
// Example Prometheus Queries:
//
//   # Share of entities that failed
//   sum(rate(geo_entities_total{kind="error"}[5m])) / sum(rate(geo_entities_total[5m]))
//
//   # Throttling pressure
//   rate(geo_rate_limited_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(geo_request_duration_seconds_bucket[5m]))
//
//   # Gate saturation
//   max_over_time(geo_gate_in_flight[5m])
