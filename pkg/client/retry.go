package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	geoRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geo_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	geoRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geo_retry_backoff_seconds",
		Help:    "Wait before a retry by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	geoRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_retry_exhausted_total",
		Help: "Total number of entities whose attempt budget was exhausted",
	})

	geoOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geo_outcomes_total",
		Help: "Terminal outcomes by kind",
	}, []string{"kind"})
)

// Resolve drives one entity to a terminal outcome.
//
// Each attempt is classified before deciding what to do next:
//   - 200 with candidates or without: terminal Success or NotFound
//   - 429: wait Retry-After (default 5s), then spend an attempt
//   - other non-200: terminal "HTTP <status>", never retried
//   - transport fault: wait TransientDelay, then spend an attempt
//
// Resolve never returns an error; every failure is an error Outcome.
func (c *Client) Resolve(ctx context.Context, entity geo.Entity) geo.Outcome {
	outcome := c.resolve(ctx, entity)
	geoOutcomesTotal.WithLabelValues(outcome.Kind.String()).Inc()
	return outcome
}

func (c *Client) resolve(ctx context.Context, entity geo.Entity) geo.Outcome {
	budget := c.config.MaxRetries
	logger := c.logger.With().Str("entity", entity).Logger()

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		logger.Debug().Int("attempt", attempt).Msg("Requesting")

		outcome, err := c.search(ctx, entity)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Str("outcome", outcome.Kind.String()).
					Msg("Request succeeded after retry")
			}
			return outcome
		}
		lastErr = err

		var aerr *AttemptError
		if !errors.As(err, &aerr) {
			aerr = &AttemptError{ErrorClass: ErrorClassTransport, Message: "unclassified", Err: err}
		}

		if !shouldRetry(aerr.ErrorClass) {
			logger.Warn().
				Int("status", aerr.StatusCode).
				Str("error_class", string(aerr.ErrorClass)).
				Msg("Request failed, not retrying")
			return geo.HTTPFailure(aerr.StatusCode)
		}

		if ctx.Err() != nil {
			return cancelled(ctx)
		}

		wait := c.retryDelay(aerr)
		if aerr.ErrorClass == ErrorClassTransport {
			logger.Error().
				Err(aerr.Err).
				Msgf("[attempt %d/%d] request failed", attempt, budget)
		}

		// No wait after the last attempt. Sleeping first and then giving up
		// yields the same outcome; only the timing differs.
		if attempt >= budget {
			break
		}

		geoRetriesTotal.WithLabelValues(string(aerr.ErrorClass)).Inc()
		geoRetryBackoffSeconds.WithLabelValues(string(aerr.ErrorClass)).Observe(wait.Seconds())

		logger.Debug().
			Str("error_class", string(aerr.ErrorClass)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		if err := c.wait(ctx, wait); err != nil {
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return geo.Failure(err.Error())
		}
	}

	geoRetryExhaustedTotal.Inc()
	logger.Error().
		Int("max_attempts", budget).
		Err(fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, budget, lastErr)).
		Msg("Retry attempts exhausted")

	return geo.Failure(geo.ReasonExhausted)
}

// retryDelay returns the wait before the next attempt for a retriable class.
func (c *Client) retryDelay(aerr *AttemptError) time.Duration {
	if aerr.ErrorClass == ErrorClassRateLimit {
		return aerr.Wait
	}
	return c.config.TransientDelay
}

// wait suspends for d on the client's clock, returning early on cancellation.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}
		return nil
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-timer.Chan():
		return nil
	}
}

func cancelled(ctx context.Context) geo.Outcome {
	return geo.Failure(fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err()).Error())
}
