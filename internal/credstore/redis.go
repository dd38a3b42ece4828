package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// RedisStore keeps the token under one redis key, for hosts that share a
// session between several clients.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a store using rdb and key.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context) (*oauth2.Token, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return decode(data)
}

// Set implements Store. The key has no expiry.
func (s *RedisStore) Set(ctx context.Context, token *oauth2.Token) error {
	data, err := encode(token)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// Close releases the redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
