package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// invalidateScanCount bounds each SCAN page so prefix invalidation never
// blocks the store the way an unbounded KEYS listing would
const invalidateScanCount = 100

// redisStore is the shared remote backend
type redisStore struct {
	client *redis.Client
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, payload, ttl).Err()
}

// DeleteByPrefix enumerates matching keys with incremental SCAN pages
// and deletes them in batches.
func (r *redisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", invalidateScanCount).Result()
		if err != nil {
			return deleted, err
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (r *redisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
