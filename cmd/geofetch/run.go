package main

import (
	"context"
	"fmt"
	"net"

	"github.com/Sternrassler/geo-enrich/internal/config"
	"github.com/Sternrassler/geo-enrich/pkg/client"
	"github.com/Sternrassler/geo-enrich/pkg/fetch"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/Sternrassler/geo-enrich/pkg/metrics"
	"github.com/Sternrassler/geo-enrich/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	runInput       string
	runOutput      string
	runConcurrency int
	runRetries     int
	runRedisURL    string
	runRedisKey    string
	runMetricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve every entity in the input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		_, err := runFetch(cmd.Context(), cfg)
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runInput, "input", "i", "", "JSON array of entity names (default: INPUT_FILE)")
	f.StringVarP(&runOutput, "output", "o", "", "output JSON file (default: OUTPUT_FILE)")
	f.IntVarP(&runConcurrency, "concurrency", "c", 0, "max concurrent entities (default: MAX_CONCURRENT_REQUESTS)")
	f.IntVar(&runRetries, "retries", 0, "attempt budget per entity (default: RETRIES)")
	f.StringVar(&runRedisURL, "redis-url", "", "also write results to Redis (default: REDIS_URL)")
	f.StringVar(&runRedisKey, "redis-key", "", "Redis hash key (default: REDIS_KEY)")
	f.StringVar(&runMetricsAddr, "metrics-addr", "", "serve /metrics on this address (default: METRICS_ADDR)")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides cfg with flags set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputFile = runInput
	}
	if f.Changed("output") {
		cfg.OutputFile = runOutput
	}
	if f.Changed("concurrency") {
		cfg.MaxConcurrency = runConcurrency
	}
	if f.Changed("retries") {
		cfg.Retries = runRetries
	}
	if f.Changed("redis-url") {
		cfg.RedisURL = runRedisURL
	}
	if f.Changed("redis-key") {
		cfg.RedisKey = runRedisKey
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = runMetricsAddr
	}
}

// runFetch loads the input, resolves it and saves the results to every
// configured sink.
func runFetch(ctx context.Context, cfg *config.Config) (fetch.Report, error) {
	logger := logging.NewLogger("geofetch")

	if cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fetch.Report{}, fmt.Errorf("listen metrics: %w", err)
		}
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := metrics.NewServer(cfg.MetricsAddr).Serve(metricsCtx, ln); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	entities, err := store.LoadEntities(cfg.InputFile)
	if err != nil {
		return fetch.Report{}, err
	}
	logger.Info().
		Str("path", cfg.InputFile).
		Int("entities", len(entities)).
		Msg("Entities loaded")

	sinks := []store.Sink{store.NewJSONFile(cfg.OutputFile)}

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fetch.Report{}, err
		}
		defer redisClient.Close()

		sinks = append(sinks, store.NewRedis(redisClient, cfg.RedisKey))
	}

	geocoder, err := client.New(cfg.ClientConfig())
	if err != nil {
		return fetch.Report{}, fmt.Errorf("create geocoder client: %w", err)
	}
	defer geocoder.Close()

	report := fetch.New(geocoder, cfg.FetchConfig()).Run(ctx, entities)

	rl := geocoder.RateLimitStats()
	logger.Info().
		Int("rate_limited", rl.Responses).
		Dur("rate_limit_wait", rl.TotalWait).
		Dur("max_rate_limit_wait", rl.MaxWait).
		Msg("Rate limit summary")

	// Results are saved even after ctx is cancelled.
	if err := store.NewMulti(sinks...).Save(context.WithoutCancel(ctx), report.Results); err != nil {
		return report, fmt.Errorf("save results: %w", err)
	}
	return report, nil
}

// connectRedis opens a client for url and checks it answers.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger := logging.NewLogger("geofetch")
	logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return redisClient, nil
}
