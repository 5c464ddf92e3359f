// Package client provides the geocoding HTTP client: one search request per
// attempt, classification of every response or fault, and the per-entity
// retry loop that turns attempts into a terminal geo.Outcome.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/Sternrassler/geo-enrich/pkg/ratelimit"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for geocoder requests.
var (
	geoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geo_requests_total",
		Help: "Total geocoder requests by HTTP status",
	}, []string{"status"})

	geoRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_request_duration_seconds",
		Help:    "Geocoder request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	geoErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geo_errors_total",
		Help: "Total geocoder attempt errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of failed attempts.
type ErrorClass string

const (
	// ErrorClassHTTP represents non-200, non-429 responses. Terminal.
	ErrorClassHTTP ErrorClass = "http"

	// ErrorClassRateLimit represents 429 responses. Retried after the server-dictated wait.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassTransport represents timeouts, connection failures and malformed bodies.
	ErrorClassTransport ErrorClass = "transport"
)

// Defaults for Config.
const (
	DefaultBaseURL        = "https://nominatim.openstreetmap.org"
	DefaultUserAgent      = "KayakTripPlanner/1.0 (your_email@example.com)"
	DefaultMaxRetries     = 3
	DefaultTimeout        = 30 * time.Second
	DefaultTransientDelay = 1 * time.Second
)

// Client is the geocoding service client.
type Client struct {
	httpClient  *http.Client
	searchURL   string
	rateLimiter *ratelimit.Tracker
	clock       clockwork.Clock
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of a Nominatim-compatible service; "/search" is appended.
	BaseURL string

	// User-Agent header (REQUIRED by Nominatim's usage policy)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// MaxRetries is the attempt budget per entity, including the first request.
	MaxRetries int

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// TransientDelay is the pause after a transport fault.
	TransientDelay time.Duration

	// Clock drives rate-limit and backoff waits. Nil means the real clock.
	Clock clockwork.Clock
}

// DefaultConfig returns the default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		MaxRetries:     DefaultMaxRetries,
		Timeout:        DefaultTimeout,
		TransientDelay: DefaultTransientDelay,
	}
}

// New creates a new geocoding client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	if cfg.TransientDelay < 0 {
		return nil, fmt.Errorf("transient_delay must not be negative (got %s)", cfg.TransientDelay)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	logger := logging.NewLogger("geocoder")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		searchURL:   strings.TrimRight(base.String(), "/") + "/search",
		rateLimiter: ratelimit.NewTracker(logger),
		clock:       cfg.Clock,
		config:      cfg,
		logger:      logger,
	}, nil
}

// candidate is one search hit. Only the coordinates are used.
type candidate struct {
	Lat coordinate `json:"lat"`
	Lon coordinate `json:"lon"`
}

// coordinate keeps a coordinate exactly as sent. Nominatim sends strings;
// bare JSON numbers are accepted and kept in their textual form.
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = coordinate(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = coordinate(n.String())
	return nil
}

// search performs exactly one request for the entity. A nil error means a
// terminal success or not-found outcome; otherwise the error is an
// *AttemptError carrying its class.
func (c *Client) search(ctx context.Context, entity geo.Entity) (geo.Outcome, error) {
	params := url.Values{
		"q":      {entity},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return geo.Outcome{}, c.classify(nil, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	defer func() {
		geoRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		geoRequestsTotal.WithLabelValues("transport_error").Inc()
		return geo.Outcome{}, c.classify(nil, err)
	}
	defer resp.Body.Close()

	geoRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		aerr := c.classify(resp, nil)
		if aerr.ErrorClass == ErrorClassRateLimit {
			aerr.Wait, _ = c.rateLimiter.Observe(entity, resp.StatusCode, resp.Header, c.clock.Now())
		}
		return geo.Outcome{}, aerr
	}

	var candidates []candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return geo.Outcome{}, c.classify(nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}

	if len(candidates) == 0 {
		return geo.NotFound(), nil
	}

	first := candidates[0]
	if first.Lat == "" || first.Lon == "" {
		return geo.Outcome{}, c.classify(nil, fmt.Errorf("%w: candidate without coordinates", ErrMalformedResponse))
	}
	return geo.Success(string(first.Lat), string(first.Lon)), nil
}

// classify maps a response or fault into an AttemptError. Every fault goes
// through here before any retry decision is made.
func (c *Client) classify(resp *http.Response, err error) *AttemptError {
	var aerr *AttemptError

	switch {
	case err != nil:
		aerr = &AttemptError{
			ErrorClass: ErrorClassTransport,
			Message:    "request failed",
			Err:        err,
		}
		if errors.Is(err, ErrMalformedResponse) {
			aerr.StatusCode = http.StatusOK
			aerr.Message = "decode response"
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		aerr = &AttemptError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassRateLimit,
			Message:    resp.Status,
		}
	default:
		aerr = &AttemptError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassHTTP,
			Message:    resp.Status,
		}
	}

	geoErrorsTotal.WithLabelValues(string(aerr.ErrorClass)).Inc()
	c.logger.Debug().
		Str("class", string(aerr.ErrorClass)).
		Int("status", aerr.StatusCode).
		Msg("Error classified")

	return aerr
}

// RateLimitStats returns the 429 totals observed by this client.
func (c *Client) RateLimitStats() ratelimit.Stats {
	return c.rateLimiter.Stats()
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
