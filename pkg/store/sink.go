package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/rs/zerolog"
)

// Sink persists a finished ResultMap.
type Sink interface {
	Save(ctx context.Context, results geo.ResultMap) error
}

// JSONFile writes results to a file as a JSON object keyed by entity name.
type JSONFile struct {
	path   string
	logger zerolog.Logger
}

// NewJSONFile creates a sink writing to path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, logger: logging.NewLogger("store")}
}

// Path returns the output file path.
func (f *JSONFile) Path() string {
	return f.path
}

// Save overwrites the file with results.
func (f *JSONFile) Save(ctx context.Context, results geo.ResultMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeResults(results)
	if err != nil {
		StoreErrors.WithLabelValues("json", "save").Inc()
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		StoreErrors.WithLabelValues("json", "save").Inc()
		return fmt.Errorf("write results: %w", err)
	}

	StoreWrites.WithLabelValues("json").Inc()
	StoreEntries.WithLabelValues("json").Add(float64(len(results)))
	f.logger.Info().
		Str("path", f.path).
		Int("entries", len(results)).
		Msg("Data saved")
	return nil
}

// Multi saves to every sink in order. All sinks are attempted; the returned
// error joins every failure.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink. Nil sinks are skipped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of wrapped sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Save implements Sink.
func (m *Multi) Save(ctx context.Context, results geo.ResultMap) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Save(ctx, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
