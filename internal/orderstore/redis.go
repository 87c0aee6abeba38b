package orderstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// DefaultTTL matches the SESSION_TTL default of 1800 seconds.
const DefaultTTL = 1800 * time.Second

// RedisStore is the Redis-backed Store implementation: one JSON blob per
// key, refreshed TTL on every write, no secondary indices (the core never
// needs to list orders across sessions).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStore wires a Store over an existing Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, log: log}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func (s *RedisStore) Get(ctx context.Context, orderID string) (*Aggregate, error) {
	data, err := s.client.Get(ctx, orderKey(orderID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("orderstore: get %s: %w", orderID, err)
	}

	var order Aggregate
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, fmt.Errorf("orderstore: unmarshal %s: %w", orderID, err)
	}
	return &order, nil
}

func (s *RedisStore) Upsert(ctx context.Context, order *Aggregate) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("orderstore: marshal %s: %w", order.OrderID, err)
	}
	if err := s.client.Set(ctx, orderKey(order.OrderID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("orderstore: upsert %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, orderID string) error {
	if err := s.client.Del(ctx, orderKey(orderID)).Err(); err != nil {
		return fmt.Errorf("orderstore: delete %s: %w", orderID, err)
	}
	return nil
}
