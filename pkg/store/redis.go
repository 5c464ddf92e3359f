package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrNotStored indicates the entity has no stored outcome
	ErrNotStored = errors.New("entity not stored")

	// ErrInvalidEntry indicates a stored outcome is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid stored entry")
)

// Redis stores results in a Redis hash, one field per entity.
type Redis struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedis creates a Redis sink writing to the hash at key. An empty key
// selects DefaultKey.
func NewRedis(redisClient *redis.Client, key string) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultKey.String()
	}
	return &Redis{
		redis:  redisClient,
		key:    key,
		logger: logging.NewLogger("store"),
	}
}

// Key returns the hash key.
func (r *Redis) Key() string {
	return r.key
}

// Save writes every entry in a single pipeline. Existing fields for other
// entities are left alone.
func (r *Redis) Save(ctx context.Context, results geo.ResultMap) error {
	if len(results) == 0 {
		return nil
	}

	pipe := r.redis.Pipeline()
	for entity, outcome := range results {
		data, err := json.Marshal(outcome)
		if err != nil {
			StoreErrors.WithLabelValues("redis", "save").Inc()
			return fmt.Errorf("marshal outcome for %q: %w", entity, err)
		}
		pipe.HSet(ctx, r.key, entity, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}

	StoreWrites.WithLabelValues("redis").Inc()
	StoreEntries.WithLabelValues("redis").Add(float64(len(results)))
	r.logger.Info().
		Str("key", r.key).
		Int("entries", len(results)).
		Msg("Data saved to redis")
	return nil
}

// Get returns the stored outcome for entity.
// Returns ErrNotStored if the hash has no field for it.
func (r *Redis) Get(ctx context.Context, entity geo.Entity) (geo.Outcome, error) {
	data, err := r.redis.HGet(ctx, r.key, entity).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return geo.Outcome{}, ErrNotStored
		}
		StoreErrors.WithLabelValues("redis", "get").Inc()
		return geo.Outcome{}, fmt.Errorf("redis hget: %w", err)
	}

	var outcome geo.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		StoreErrors.WithLabelValues("redis", "get").Inc()
		return geo.Outcome{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return outcome, nil
}

// Load returns every stored outcome. Corrupted fields are skipped and logged.
func (r *Redis) Load(ctx context.Context) (geo.ResultMap, error) {
	fields, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		StoreErrors.WithLabelValues("redis", "load").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	results := make(geo.ResultMap, len(fields))
	for entity, raw := range fields {
		var outcome geo.Outcome
		if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
			StoreErrors.WithLabelValues("redis", "load").Inc()
			r.logger.Warn().
				Str("key", r.key).
				Str("entity", entity).
				Err(err).
				Msg("Skipping invalid stored entry")
			continue
		}
		results[entity] = outcome
	}
	return results, nil
}

// Delete removes the whole hash.
func (r *Redis) Delete(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		StoreErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
