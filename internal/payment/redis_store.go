package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const orderKeyPrefix = "payment:order:"

// RedisOrderStore holds orders in Redis; expiry rides on the key TTL so an
// abandoned checkout cleans itself up.
type RedisOrderStore struct {
	client *redis.Client
}

func NewRedisOrderStore(client *redis.Client) *RedisOrderStore {
	return &RedisOrderStore{client: client}
}

func (s *RedisOrderStore) Put(ctx context.Context, order *Order, ttl time.Duration) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.client.Set(ctx, orderKeyPrefix+order.ID, body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store order: %w", err)
	}
	return nil
}

func (s *RedisOrderStore) Get(ctx context.Context, orderID string) (*Order, error) {
	body, err := s.client.Get(ctx, orderKeyPrefix+orderID).Bytes()
	if err == redis.Nil {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &order, nil
}

func (s *RedisOrderStore) SetStatus(ctx context.Context, orderID string, status OrderStatus) error {
	key := orderKeyPrefix + orderID

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	order.Status = status

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	// KeepTTL preserves the original expiry window.
	if err := s.client.Set(ctx, key, body, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}
