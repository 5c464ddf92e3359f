package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	geoEntitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geo_entities_total",
		Help: "Entities completed by outcome kind",
	}, []string{"kind"})

	geoRunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_run_duration_seconds",
		Help:    "Wall time of a complete fetch run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)

// Config holds orchestrator configuration.
type Config struct {
	// MaxConcurrency is the number of entities resolved at once.
	// Nominatim's usage policy asks for modest parallelism.
	MaxConcurrency int

	// ProgressEvery logs a progress line every N completions. Zero disables it.
	ProgressEvery int
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		ProgressEvery:  10,
	}
}

// Resolver drives a single entity to a terminal outcome. It must not
// return until the entity is resolved or ctx is done.
type Resolver interface {
	Resolve(ctx context.Context, entity geo.Entity) geo.Outcome
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, entity geo.Entity) geo.Outcome

// Resolve calls f(ctx, entity).
func (f ResolverFunc) Resolve(ctx context.Context, entity geo.Entity) geo.Outcome {
	return f(ctx, entity)
}

// Report is the result of a run plus what was observed while producing it.
type Report struct {
	Results      geo.ResultMap
	Entities     int
	Duplicates   int
	PeakInFlight int
	Duration     time.Duration
}

// Orchestrator fans entities out to a Resolver under a concurrency cap.
type Orchestrator struct {
	resolver Resolver
	config   Config
}

// entityResult is one completion on the results stream.
type entityResult struct {
	entity  geo.Entity
	outcome geo.Outcome
}

// New creates an orchestrator.
func New(resolver Resolver, config Config) *Orchestrator {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.ProgressEvery < 0 {
		config.ProgressEvery = 0
	}

	return &Orchestrator{
		resolver: resolver,
		config:   config,
	}
}

// FetchAll resolves every entity and returns one entry per distinct name.
func (o *Orchestrator) FetchAll(ctx context.Context, entities []geo.Entity) geo.ResultMap {
	return o.Run(ctx, entities).Results
}

// Run resolves every entity and reports the run. It never fails: faults are
// recorded as error outcomes. If ctx is cancelled, entities still waiting
// for a permit are recorded with the cancellation as their reason.
func (o *Orchestrator) Run(ctx context.Context, entities []geo.Entity) Report {
	start := time.Now()
	logger := logging.NewLogger("orchestrator")

	distinct := geo.Distinct(entities)
	if distinct != len(entities) {
		logger.Warn().
			Int("entities", len(entities)).
			Int("distinct", distinct).
			Msg("Input contains duplicate names; they collapse into one result")
	}

	logger.Info().
		Int("entities", len(entities)).
		Int("max_concurrency", o.config.MaxConcurrency).
		Msg("Starting concurrent fetch")

	gate := NewGate(o.config.MaxConcurrency)
	results := make(chan entityResult, len(entities))

	var wg sync.WaitGroup
	for _, entity := range entities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- entityResult{entity: entity, outcome: o.resolveGated(ctx, gate, entity, logger)}
		}()
	}

	// Close results channel when all tasks are done
	go func() {
		wg.Wait()
		close(results)
	}()

	agg := NewAggregator(distinct, logger)
	for r := range results {
		agg.Insert(r.entity, r.outcome)
		geoEntitiesTotal.WithLabelValues(r.outcome.Kind.String()).Inc()

		logger.Info().
			Str("entity", r.entity).
			Str("outcome", r.outcome.String()).
			Msg("Entity resolved")

		if every := o.config.ProgressEvery; every > 0 && agg.Inserted()%every == 0 {
			logger.Info().
				Int("completed", agg.Inserted()).
				Int("total", len(entities)).
				Float64("progress_pct", float64(agg.Inserted())/float64(len(entities))*100).
				Msg("Fetch progress")
		}
	}

	report := Report{
		Results:      agg.Result(),
		Entities:     len(entities),
		Duplicates:   agg.Duplicates(),
		PeakInFlight: gate.Peak(),
		Duration:     time.Since(start),
	}
	geoRunDurationSeconds.Observe(report.Duration.Seconds())

	counts := report.Results.Counts()
	logger.Info().
		Int("entities", report.Entities).
		Int("results", len(report.Results)).
		Int("success", counts[geo.KindSuccess]).
		Int("not_found", counts[geo.KindNotFound]).
		Int("error", counts[geo.KindError]).
		Int("peak_in_flight", report.PeakInFlight).
		Dur("duration", report.Duration).
		Msg("Fetch complete")

	return report
}

// resolveGated holds a permit for the whole retry sequence of one entity.
func (o *Orchestrator) resolveGated(ctx context.Context, gate *Gate, entity geo.Entity, logger zerolog.Logger) (outcome geo.Outcome) {
	if err := gate.Acquire(ctx); err != nil {
		return geo.Failure(fmt.Sprintf("acquire permit: %v", err))
	}
	defer gate.Release()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("entity", entity).
				Interface("panic", r).
				Msg("Resolver panicked")
			outcome = geo.Failure(fmt.Sprintf("panic: %v", r))
		}
	}()

	outcome = o.resolver.Resolve(ctx, entity)
	if !outcome.Valid() {
		return geo.Failure(fmt.Sprintf("invalid outcome: %+v", outcome))
	}
	return outcome
}
