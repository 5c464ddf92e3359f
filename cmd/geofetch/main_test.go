package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/geo-enrich/internal/config"
	"github.com/Sternrassler/geo-enrich/internal/testutil"
	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "seed", "show"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geofetch", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "output", "concurrency", "retries", "redis-url", "redis-key", "metrics-addr"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run command should have --%s flag", name)
	}
	assert.Equal(t, "0", runCmd.Flags().Lookup("concurrency").DefValue)
}

func TestApplyRunFlags(t *testing.T) {
	cfg := &config.Config{
		InputFile:      "cities.json",
		OutputFile:     "coordinates.json",
		MaxConcurrency: 5,
		Retries:        3,
	}

	require.NoError(t, runCmd.Flags().Set("concurrency", "2"))
	require.NoError(t, runCmd.Flags().Set("output", "out.json"))
	t.Cleanup(func() {
		runCmd.Flags().Lookup("concurrency").Changed = false
		runCmd.Flags().Lookup("output").Changed = false
	})

	applyRunFlags(runCmd, cfg)

	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, "out.json", cfg.OutputFile)
	assert.Equal(t, "cities.json", cfg.InputFile)
	assert.Equal(t, 3, cfg.Retries)
}

func TestWriteSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")

	require.NoError(t, writeSeed(path))

	entities, err := store.LoadEntities(path)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultCities, entities)
}

type fixture struct {
	mock *testutil.MockGeocoder
	mr   *miniredis.Miniredis
	cfg  *config.Config
}

func newFixture(t *testing.T, entities []geo.Entity) *fixture {
	t.Helper()

	mock := testutil.NewMockGeocoder()
	t.Cleanup(mock.Close)
	mr := miniredis.RunT(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "cities.json")
	require.NoError(t, store.SaveEntities(input, entities))

	return &fixture{
		mock: mock,
		mr:   mr,
		cfg: &config.Config{
			UserAgent:      "GeofetchTest/1.0 (test@example.com)",
			GeocoderURL:    mock.URL(),
			MaxConcurrency: 2,
			Retries:        3,
			RequestTimeout: 2 * time.Second,
			TransientDelay: 10 * time.Millisecond,
			InputFile:      input,
			OutputFile:     filepath.Join(dir, "coordinates.json"),
			RedisURL:       "redis://" + mr.Addr(),
			RedisKey:       "geo:coordinates:test",
		},
	}
}

func readOutput(t *testing.T, path string) geo.ResultMap {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var results geo.ResultMap
	require.NoError(t, json.Unmarshal(data, &results))
	return results
}

func TestRunFetch_EndToEnd(t *testing.T) {
	f := newFixture(t, []geo.Entity{"Paris, France", "Nowhere", "Broken", "Flaky"})
	f.mock.Script("Paris, France", testutil.NewFoundStep("48.8534951", "2.3483915"))
	f.mock.Script("Broken", testutil.NewServerErrorStep())
	f.mock.Script("Flaky", testutil.NewMalformedStep(), testutil.NewFoundStep("1.5", "2.5"))

	report, err := runFetch(context.Background(), f.cfg)
	require.NoError(t, err)

	want := geo.ResultMap{
		"Paris, France": geo.Success("48.8534951", "2.3483915"),
		"Nowhere":       geo.NotFound(),
		"Broken":        geo.HTTPFailure(500),
		"Flaky":         geo.Success("1.5", "2.5"),
	}
	assert.Equal(t, want, report.Results)
	assert.Equal(t, want, readOutput(t, f.cfg.OutputFile))
	assert.LessOrEqual(t, report.PeakInFlight, 2)

	assert.Equal(t, `{"latitude":"48.8534951","longitude":"2.3483915"}`, f.mr.HGet("geo:coordinates:test", "Paris, France"))
	assert.Equal(t, `{"error":"HTTP 500"}`, f.mr.HGet("geo:coordinates:test", "Broken"))
	assert.Equal(t, 1, f.mock.RequestCount("Broken"))
	assert.Equal(t, 2, f.mock.RequestCount("Flaky"))
}

func TestRunFetch_WithoutRedis(t *testing.T) {
	f := newFixture(t, []geo.Entity{"Paris, France"})
	f.cfg.RedisURL = ""
	f.mock.Script("Paris, France", testutil.NewFoundStep("48.8534951", "2.3483915"))

	_, err := runFetch(context.Background(), f.cfg)
	require.NoError(t, err)

	assert.Equal(t, geo.ResultMap{"Paris, France": geo.Success("48.8534951", "2.3483915")}, readOutput(t, f.cfg.OutputFile))
	assert.False(t, f.mr.Exists("geo:coordinates:test"))
}

func TestRunFetch_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		f := newFixture(t, nil)
		f.cfg.InputFile = filepath.Join(t.TempDir(), "missing.json")
		_, err := runFetch(context.Background(), f.cfg)
		assert.Error(t, err)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		f := newFixture(t, []geo.Entity{"Paris, France"})
		f.mr.SetError("LOADING Redis is loading the dataset in memory")
		_, err := runFetch(context.Background(), f.cfg)
		assert.Error(t, err)
		assert.Equal(t, 0, f.mock.TotalRequests())
	})

	t.Run("invalid geocoder url", func(t *testing.T) {
		f := newFixture(t, []geo.Entity{"Paris, France"})
		f.cfg.RedisURL = ""
		f.cfg.GeocoderURL = "not a url"
		_, err := runFetch(context.Background(), f.cfg)
		assert.Error(t, err)
	})
}

func TestShowCommand_Flags(t *testing.T) {
	for _, name := range []string{"redis-url", "redis-key", "clear"} {
		assert.NotNil(t, showCmd.Flags().Lookup(name), "show command should have --%s flag", name)
	}
}

func TestShowResults(t *testing.T) {
	f := newFixture(t, []geo.Entity{"Paris, France", "Broken"})
	f.mock.Script("Paris, France", testutil.NewFoundStep("48.8534951", "2.3483915"))
	f.mock.Script("Broken", testutil.NewServerErrorStep())

	_, err := runFetch(context.Background(), f.cfg)
	require.NoError(t, err)

	t.Run("all stored", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showResults(context.Background(), f.cfg, &out, nil, false))

		var results geo.ResultMap
		require.NoError(t, json.Unmarshal(out.Bytes(), &results))
		assert.Equal(t, readOutput(t, f.cfg.OutputFile), results)
	})

	t.Run("named entities", func(t *testing.T) {
		var out bytes.Buffer
		err := showResults(context.Background(), f.cfg, &out, []geo.Entity{"Broken", "Nowhere"}, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotStored)
		assert.Contains(t, err.Error(), "Nowhere")

		var results geo.ResultMap
		require.NoError(t, json.Unmarshal(out.Bytes(), &results))
		assert.Equal(t, geo.ResultMap{"Broken": geo.HTTPFailure(500)}, results)
	})

	t.Run("clear", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showResults(context.Background(), f.cfg, &out, nil, true))
		assert.Empty(t, out.String())
		assert.False(t, f.mr.Exists("geo:coordinates:test"))

		require.NoError(t, showResults(context.Background(), f.cfg, &out, nil, false))
		assert.Equal(t, "{}\n", out.String())
	})
}

func TestShowResults_Errors(t *testing.T) {
	t.Run("no redis url", func(t *testing.T) {
		f := newFixture(t, nil)
		f.cfg.RedisURL = ""
		err := showResults(context.Background(), f.cfg, &bytes.Buffer{}, nil, false)
		assert.Error(t, err)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		f := newFixture(t, nil)
		f.mr.SetError("LOADING Redis is loading the dataset in memory")
		err := showResults(context.Background(), f.cfg, &bytes.Buffer{}, nil, false)
		assert.Error(t, err)
	})
}
