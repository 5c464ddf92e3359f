package fetch

import (
	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/rs/zerolog"
)

// Aggregator collects per-entity outcomes into a ResultMap. It is fed by a
// single goroutine draining the completion stream and is not safe for
// concurrent use.
type Aggregator struct {
	results    geo.ResultMap
	inserted   int
	duplicates int
	sealed     bool
	logger     zerolog.Logger
}

// NewAggregator creates an empty aggregator sized for expected entries.
func NewAggregator(expected int, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		results: make(geo.ResultMap, expected),
		logger:  logger,
	}
}

// Insert records the outcome for entity. A second insert for the same name
// overwrites the first; this only happens for duplicate input names.
func (a *Aggregator) Insert(entity geo.Entity, outcome geo.Outcome) {
	if a.sealed {
		panic("fetch: insert into sealed aggregator")
	}

	if prev, ok := a.results[entity]; ok {
		a.duplicates++
		a.logger.Warn().
			Str("entity", entity).
			Str("previous", prev.String()).
			Str("outcome", outcome.String()).
			Msg("Duplicate entity, overwriting previous outcome")
	}

	a.results[entity] = outcome
	a.inserted++
}

// Result seals the aggregator and returns the finished map. The map must
// not be modified afterwards.
func (a *Aggregator) Result() geo.ResultMap {
	a.sealed = true
	return a.results
}

// Inserted returns how many outcomes were inserted, duplicates included.
func (a *Aggregator) Inserted() int {
	return a.inserted
}

// Duplicates returns how many inserts overwrote an earlier entry.
func (a *Aggregator) Duplicates() int {
	return a.duplicates
}
