package objectstore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// record is what RedisStore persists per key: the object bytes (base64, so a
// plain redis.Get round-trips it safely) plus the content type needed to
// reconstruct a servable URL.
type record struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}

// RedisStore is a Redis-backed Store: one key per object, no expiry (audio
// objects are append-only from the core's perspective), fronted by a CDN
// base URL so the stored key maps onto a fetchable path.
type RedisStore struct {
	client  *redis.Client
	baseURL string
	log     *logger.Logger
}

// NewRedisStore wires a Store over an existing Redis client. baseURL is
// prefixed to every key to form the URL returned to callers, e.g.
// "https://cdn.drivethru.example/audio".
func NewRedisStore(client *redis.Client, baseURL string, log *logger.Logger) *RedisStore {
	return &RedisStore{client: client, baseURL: baseURL, log: log}
}

func objectKey(key string) string {
	return fmt.Sprintf("audio:%s", key)
}

func (s *RedisStore) url(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	rec := record{Data: base64.StdEncoding.EncodeToString(data), ContentType: contentType}
	payload := fmt.Sprintf("%s|%s", rec.ContentType, rec.Data)
	if err := s.client.Set(ctx, objectKey(key), payload, 0).Err(); err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return s.url(key), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	exists, err := s.client.Exists(ctx, objectKey(key)).Result()
	if err != nil {
		return "", fmt.Errorf("objectstore: exists %s: %w", key, err)
	}
	if exists == 0 {
		return "", nil
	}
	return s.url(key), nil
}
