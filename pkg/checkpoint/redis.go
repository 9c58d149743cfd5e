package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

// DefaultRedisKey is the Redis key used when none is configured.
const DefaultRedisKey = "enrich:checkpoint"

// RedisStore keeps the checkpoint in Redis so multiple hosts can share
// one resume position. The stored value is the same JSON object the
// FileStore writes.
type RedisStore struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed checkpoint store.
func NewRedisStore(redisClient *redis.Client, key string) (*RedisStore, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis:  redisClient,
		key:    key,
		logger: logging.NewLogger("checkpoint-redis"),
	}, nil
}

// Load reads the checkpoint key.
func (s *RedisStore) Load(ctx context.Context) (cursor.Cursor, bool, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return cursor.Cursor{}, false, nil
		}
		checkpointErrorsTotal.WithLabelValues("load").Inc()
		return cursor.Cursor{}, false, fmt.Errorf("redis get: %w", err)
	}

	var cur cursor.Cursor
	if err := json.Unmarshal(data, &cur); err != nil {
		checkpointErrorsTotal.WithLabelValues("load").Inc()
		return cursor.Cursor{}, false, fmt.Errorf("parse checkpoint %s: %w", s.key, err)
	}

	s.logger.Debug().
		Str("key", s.key).
		Str("cursor_name", cur.Name).
		Msg("Loaded checkpoint")

	return cur, true, nil
}

// Save overwrites the checkpoint key. No TTL: the checkpoint lives until
// the walk completes and clears it.
func (s *RedisStore) Save(ctx context.Context, cur cursor.Cursor) error {
	data, err := json.Marshal(cur)
	if err != nil {
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	if err := s.redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	checkpointSavesTotal.Inc()
	s.logger.Debug().
		Str("key", s.key).
		Str("cursor_name", cur.Name).
		Msg("Saved checkpoint")

	return nil
}

// Clear deletes the checkpoint key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		checkpointErrorsTotal.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	checkpointClearsTotal.Inc()
	s.logger.Debug().Str("key", s.key).Msg("Cleared checkpoint")
	return nil
}
