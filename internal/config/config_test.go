package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "KayakTripPlanner/1.0 (your_email@example.com)", cfg.UserAgent)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderURL)
	assert.Equal(t, 5, cfg.MaxConcurrency)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.TransientDelay)
	assert.Equal(t, "cities.json", cfg.InputFile)
	assert.Equal(t, "coordinates.json", cfg.OutputFile)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "geo:coordinates", cfg.RedisKey)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("USER_AGENT", "TestApp/2.0 (test@example.com)")
	t.Setenv("GEOCODER_URL", "http://localhost:8088")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "2")
	t.Setenv("RETRIES", "5")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("TRANSIENT_DELAY", "0.5")
	t.Setenv("INPUT_FILE", "in.json")
	t.Setenv("OUTPUT_FILE", "out.json")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REDIS_KEY", "geo:coordinates:test")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "TestApp/2.0 (test@example.com)", cfg.UserAgent)
	assert.Equal(t, "http://localhost:8088", cfg.GeocoderURL)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.TransientDelay)
	assert.Equal(t, "in.json", cfg.InputFile)
	assert.Equal(t, "out.json", cfg.OutputFile)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "geo:coordinates:test", cfg.RedisKey)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero concurrency", "MAX_CONCURRENT_REQUESTS", "0"},
		{"non-numeric concurrency", "MAX_CONCURRENT_REQUESTS", "five"},
		{"negative retries", "RETRIES", "-1"},
		{"bad timeout", "REQUEST_TIMEOUT", "soon"},
		{"zero timeout", "REQUEST_TIMEOUT", "0s"},
		{"negative transient delay", "TRANSIENT_DELAY", "-1s"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"blank user agent", "USER_AGENT", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RETRIES=7\nOUTPUT_FILE=from-dotenv.json\n"), 0o644))

	t.Chdir(dir)

	// godotenv does not override variables already set, so register them
	// with t.Setenv first to have them removed after the test.
	t.Setenv("RETRIES", "")
	t.Setenv("OUTPUT_FILE", "")
	require.NoError(t, os.Unsetenv("RETRIES"))
	require.NoError(t, os.Unsetenv("OUTPUT_FILE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retries)
	assert.Equal(t, "from-dotenv.json", cfg.OutputFile)
}

func TestConfig_Derived(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_REQUESTS", "2")
	t.Setenv("RETRIES", "4")
	t.Setenv("GEOCODER_URL", "http://localhost:8088")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	cc := cfg.ClientConfig()
	assert.Equal(t, "http://localhost:8088", cc.BaseURL)
	assert.Equal(t, cfg.UserAgent, cc.UserAgent)
	assert.Equal(t, 4, cc.MaxRetries)
	assert.Equal(t, 30*time.Second, cc.Timeout)
	assert.Equal(t, time.Second, cc.TransientDelay)

	assert.Equal(t, 2, cfg.FetchConfig().MaxConcurrency)

	lc := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.False(t, lc.Pretty)
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.MaxConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg.MaxConcurrency = 1
	cfg.OutputFile = ""
	assert.Error(t, cfg.Validate())

	cfg.OutputFile = "out.json"
	assert.NoError(t, cfg.Validate())
}
