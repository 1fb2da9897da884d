package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection under a single key in a redis-compatible
// document store. It carries no local cache; Invalidate is a no-op because
// every read hits the store directly.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisStoreOption adjusts the client options before connecting.
type RedisStoreOption func(*redis.Options)

// WithRedisAuth sets the connection password and database index.
func WithRedisAuth(password string, db int) RedisStoreOption {
	return func(opts *redis.Options) {
		opts.Password = password
		opts.DB = db
	}
}

// NewRedisStore constructs a store backed by the given address. The prefix
// namespaces collection keys so several deployments can share one instance.
func NewRedisStore(addr, keyPrefix string, opts ...RedisStoreOption) *RedisStore {
	options := &redis.Options{Addr: addr}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return &RedisStore{
		client:    redis.NewClient(options),
		keyPrefix: strings.TrimSpace(keyPrefix),
	}
}

// Read returns the raw JSON document stored for the collection.
func (s *RedisStore) Read(ctx context.Context, name string) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %q: %v", ErrUnavailable, name, err)
	}
	return raw, nil
}

// Write replaces the stored document for the collection.
func (s *RedisStore) Write(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

// Invalidate is a no-op; the redis backend serves every read from the store.
func (s *RedisStore) Invalidate(string) {}

// Close releases the underlying client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping verifies connectivity, used by health checks at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if s.keyPrefix == "" {
		return "collections:" + name, nil
	}
	return fmt.Sprintf("%s:collections:%s", s.keyPrefix, name), nil
}
