// Package config loads runtime settings for the geofetch command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/geo-enrich/pkg/client"
	"github.com/Sternrassler/geo-enrich/pkg/fetch"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/Sternrassler/geo-enrich/pkg/store"
	"github.com/joho/godotenv"
)

// Config holds all fetcher settings, populated from environment variables.
type Config struct {
	UserAgent      string
	GeocoderURL    string
	MaxConcurrency int
	Retries        int
	RequestTimeout time.Duration
	TransientDelay time.Duration

	InputFile  string
	OutputFile string

	// Redis output is enabled when RedisURL is set.
	RedisURL string
	RedisKey string

	// Metrics are served when MetricsAddr is set.
	MetricsAddr string

	LogLevel  logging.LogLevel
	LogPretty bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	concurrency, err := positiveInt("MAX_CONCURRENT_REQUESTS", fetch.DefaultConfig().MaxConcurrency)
	if err != nil {
		return nil, err
	}

	retries, err := positiveInt("RETRIES", client.DefaultMaxRetries)
	if err != nil {
		return nil, err
	}

	timeout, err := duration("REQUEST_TIMEOUT", client.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, errors.New("invalid REQUEST_TIMEOUT: must be positive")
	}

	transientDelay, err := duration("TRANSIENT_DELAY", client.DefaultTransientDelay)
	if err != nil {
		return nil, err
	}
	if transientDelay < 0 {
		return nil, errors.New("invalid TRANSIENT_DELAY: must not be negative")
	}

	level, err := logging.ParseLevel(envOrDefault("LOG_LEVEL", string(logging.LevelInfo)))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		UserAgent:      envOrDefault("USER_AGENT", client.DefaultUserAgent),
		GeocoderURL:    envOrDefault("GEOCODER_URL", client.DefaultBaseURL),
		MaxConcurrency: concurrency,
		Retries:        retries,
		RequestTimeout: timeout,
		TransientDelay: transientDelay,
		InputFile:      envOrDefault("INPUT_FILE", "cities.json"),
		OutputFile:     envOrDefault("OUTPUT_FILE", "coordinates.json"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKey:       envOrDefault("REDIS_KEY", store.DefaultKey.String()),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		LogLevel:       level,
		LogPretty:      strings.EqualFold(envOrDefault("LOG_PRETTY", "false"), "true"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that flags can override after Load.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserAgent) == "" {
		return errors.New("USER_AGENT is required")
	}
	if c.GeocoderURL == "" {
		return errors.New("GEOCODER_URL is required")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be >= 1 (got %d)", c.MaxConcurrency)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be >= 1 (got %d)", c.Retries)
	}
	if c.InputFile == "" {
		return errors.New("INPUT_FILE is required")
	}
	if c.OutputFile == "" {
		return errors.New("OUTPUT_FILE is required")
	}
	return nil
}

// ClientConfig returns the geocoder client settings.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.GeocoderURL
	cfg.MaxRetries = c.Retries
	cfg.Timeout = c.RequestTimeout
	cfg.TransientDelay = c.TransientDelay
	return cfg
}

// FetchConfig returns the orchestrator settings.
func (c *Config) FetchConfig() fetch.Config {
	cfg := fetch.DefaultConfig()
	cfg.MaxConcurrency = c.MaxConcurrency
	return cfg
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

// duration accepts Go duration strings ("30s") and bare seconds ("30").
func duration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
