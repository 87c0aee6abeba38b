package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache defines the minimal caching operations the conversation core needs
// from a distributed key/value store. Implementations must be safe for
// concurrent use by multiple goroutines.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Health(ctx context.Context) error
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = fmt.Errorf("cache: key not found")

// RedisCache implements Cache using go-redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// Config represents Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// DefaultConfig returns sane defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:   "localhost",
		Port:   6379,
		DB:     0,
		Prefix: "drivethru",
	}
}

// NewRedisCache creates a new Redis-backed cache and verifies connectivity.
func NewRedisCache(config *Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, prefix: config.Prefix}, nil
}

// NewRedisCacheFromClient wraps an already-configured client, letting callers
// share one connection pool across the cache and the order store.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := r.client.Set(ctx, r.fullKey(key), data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.fullKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache key %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, r.fullKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", key, err)
	}
	return count > 0, nil
}

func (r *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if err := r.client.Expire(ctx, r.fullKey(key), expiration).Err(); err != nil {
		return fmt.Errorf("failed to set expiration on %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := r.client.Keys(ctx, r.fullKey(pattern)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys matching %s: %w", pattern, err)
	}
	result := make([]string, len(keys))
	for i, k := range keys {
		result[i] = r.stripPrefix(k)
	}
	return result, nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Client exposes the underlying go-redis client for components (order store,
// audio dispatcher) that need primitives Cache doesn't surface, e.g. SETNX
// for locks or raw TTL checks.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) fullKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisCache) stripPrefix(key string) string {
	if r.prefix == "" {
		return key
	}
	prefixLen := len(r.prefix) + 1
	if len(key) > prefixLen {
		return key[prefixLen:]
	}
	return key
}
