package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

const redisKeyPrefix = "tradedesk:"

// RedisStore implements sdk.CredentialStore on redis. Keys are namespaced
// with a "tradedesk:" prefix and never expire; the backend has no token
// refresh so the record lives until logout.
type RedisStore struct {
	redis *redis.Client
}

var _ sdk.CredentialStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

// OpenRedisStore connects to addr and verifies the connection.
func OpenRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) key(key string) string {
	return redisKeyPrefix + key
}

func (s *RedisStore) Load(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load record %q: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("save record %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}
