package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "attribution:visitor:"

// RedisStore keeps each visitor's attribution in one hash whose fields are
// the channel keys. The hash expires retention after its last write.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisKey(visitorID string) string {
	return redisKeyPrefix + visitorID
}

func (s *RedisStore) Get(ctx context.Context, visitorID string, channel domain.Channel) (*domain.AttributionRecord, error) {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return nil, err
	}

	record, err := readRecord(ctx, s.client, redisKey(visitorID), keys)
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", channel, err)
	}
	return record, nil
}

type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func readRecord(ctx context.Context, c hashReader, key string, keys domain.ChannelKeys) (*domain.AttributionRecord, error) {
	names := keys.All()
	values, err := c.HMGet(ctx, key, names...).Result()
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(names))
	for i, v := range values {
		if str, ok := v.(string); ok {
			fields[names[i]] = str
		}
	}
	return decodeRecord(keys, fields), nil
}

// Set replaces every field of the channel in one transaction.
func (s *RedisStore) Set(ctx context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) error {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return err
	}

	key := redisKey(visitorID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.queueWrite(ctx, pipe, key, keys, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", channel, err)
	}
	return nil
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) (bool, error) {
	return s.writeWatched(ctx, visitorID, channel, record, func(stored *domain.AttributionRecord) bool {
		return stored == nil
	})
}

func (s *RedisStore) Replace(ctx context.Context, visitorID string, channel domain.Channel, current, next domain.AttributionRecord) (bool, error) {
	return s.writeWatched(ctx, visitorID, channel, next, func(stored *domain.AttributionRecord) bool {
		return sameCapture(stored, current)
	})
}

// maxWatchAttempts bounds retries when another client touches the hash
// between WATCH and EXEC.
const maxWatchAttempts = 5

// writeWatched writes record only if cond holds for the stored record.
// The read and the write run under WATCH so a concurrent change aborts
// the transaction and the check is redone.
func (s *RedisStore) writeWatched(
	ctx context.Context,
	visitorID string,
	channel domain.Channel,
	record domain.AttributionRecord,
	cond func(*domain.AttributionRecord) bool,
) (bool, error) {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return false, err
	}

	key := redisKey(visitorID)
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		written := false
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := readRecord(ctx, tx, key, keys)
			if err != nil {
				return err
			}
			if !cond(stored) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				s.queueWrite(ctx, pipe, key, keys, record)
				return nil
			})
			if err == nil {
				written = true
			}
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("watch %s: %w", channel, err)
		}
		return written, nil
	}
	return false, fmt.Errorf("watch %s: %w", channel, redis.TxFailedErr)
}

func (s *RedisStore) queueWrite(ctx context.Context, pipe redis.Pipeliner, key string, keys domain.ChannelKeys, record domain.AttributionRecord) {
	fields := encodeRecord(keys, record)
	values := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	if keys.ProductID != "" && record.ResolvedProductID == nil {
		pipe.HDel(ctx, key, keys.ProductID)
	}
	pipe.HSet(ctx, key, values...)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
}

func (s *RedisStore) Clear(ctx context.Context, visitorID string, channel domain.Channel) error {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return err
	}
	if err := s.client.HDel(ctx, redisKey(visitorID), keys.All()...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", channel, err)
	}
	return nil
}
