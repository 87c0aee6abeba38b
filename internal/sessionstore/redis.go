package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/drivethru-ai/conversation-core/internal/types"
)

// DefaultTTL is the SESSION_TTL default.
const DefaultTTL = 1800 * time.Second

// RedisStore is the Redis-backed Store, one JSON blob per session, mirroring
// the shape of internal/orderstore's RedisStore.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*types.SessionContext, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessionstore: get %s: %w", sessionID, err)
	}
	var sc types.SessionContext
	if err := json.Unmarshal([]byte(data), &sc); err != nil {
		return nil, fmt.Errorf("sessionstore: unmarshal %s: %w", sessionID, err)
	}
	return &sc, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, ctxVal *types.SessionContext, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(ctxVal)
	if err != nil {
		return fmt.Errorf("sessionstore: marshal %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore: put %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("sessionstore: delete %s: %w", sessionID, err)
	}
	return nil
}
