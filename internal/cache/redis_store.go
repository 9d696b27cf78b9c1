package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore backs the cache with Redis. TTLs are enforced natively; the
// logical expiry check in Cache.Get still applies on top.
type redisStore struct {
	client *redis.Client
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *redisStore) set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, key, val, ttl).Err()
}

func (s *redisStore) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisStore) keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}
