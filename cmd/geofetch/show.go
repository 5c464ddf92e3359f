package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Sternrassler/geo-enrich/internal/config"
	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/Sternrassler/geo-enrich/pkg/store"
	"github.com/spf13/cobra"
)

var (
	showRedisURL string
	showRedisKey string
	showClear    bool
)

var showCmd = &cobra.Command{
	Use:   "show [entity...]",
	Short: "Print results stored in Redis",
	Long:  "Prints the stored outcome of each named entity, or every stored outcome when no names are given. With --clear the stored hash is removed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyShowFlags(cmd, cfg)
		return showResults(cmd.Context(), cfg, cmd.OutOrStdout(), args, showClear)
	},
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showRedisURL, "redis-url", "", "Redis to read from (default: REDIS_URL)")
	f.StringVar(&showRedisKey, "redis-key", "", "Redis hash key (default: REDIS_KEY)")
	f.BoolVar(&showClear, "clear", false, "delete the stored results")
	rootCmd.AddCommand(showCmd)
}

func applyShowFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("redis-url") {
		cfg.RedisURL = showRedisURL
	}
	if f.Changed("redis-key") {
		cfg.RedisKey = showRedisKey
	}
}

// showResults writes stored outcomes to w as a JSON object. Named entities
// without a stored outcome are left out and reported in the returned error.
func showResults(ctx context.Context, cfg *config.Config, w io.Writer, entities []geo.Entity, purge bool) error {
	if cfg.RedisURL == "" {
		return errors.New("redis url is required (set REDIS_URL or --redis-url)")
	}

	redisClient, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sink := store.NewRedis(redisClient, cfg.RedisKey)
	logger := logging.NewLogger("geofetch").With().Str("key", sink.Key()).Logger()

	if purge {
		if err := sink.Delete(ctx); err != nil {
			return err
		}
		logger.Info().Msg("Stored results cleared")
		return nil
	}

	var (
		results geo.ResultMap
		missing []error
	)
	if len(entities) == 0 {
		results, err = sink.Load(ctx)
		if err != nil {
			return err
		}
	} else {
		results = make(geo.ResultMap, len(entities))
		for _, entity := range entities {
			outcome, err := sink.Get(ctx, entity)
			if errors.Is(err, store.ErrNotStored) || errors.Is(err, store.ErrInvalidEntry) {
				logger.Warn().Str("entity", entity).Err(err).Msg("No usable stored outcome")
				missing = append(missing, fmt.Errorf("%q: %w", entity, err))
				continue
			}
			if err != nil {
				return err
			}
			results[entity] = outcome
		}
	}

	data, err := store.EncodeResults(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return err
	}
	return errors.Join(missing...)
}
