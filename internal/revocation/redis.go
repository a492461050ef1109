package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs revocation with a shared TTL-expiring store so that all
// service instances observe a revoked token immediately.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "revoked:",
	}
}

func (s *RedisStore) Add(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+id, "1", ttl).Err()
}

func (s *RedisStore) Contains(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
