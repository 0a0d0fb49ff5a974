package redis

import (
	"context"
	"errors"
	"time"

	"creator-checkout/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.KeyValueStore = (*KVStore)(nil)

// KVStore keeps client-scoped state in Redis under a key prefix.
type KVStore struct {
	client RedisClient
	prefix string
}

func NewKVStore(client RedisClient, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) key(k string) string { return s.prefix + k }

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set overwrites the key; a non-positive ttl keeps it forever.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(key), value, ttl)
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}
