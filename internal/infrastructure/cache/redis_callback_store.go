package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koperasi/backend/internal/domain/payment"
)

// RedisCallbackStore implements CallbackDeduper using Redis.
// Suitable for distributed deployments where multiple instances receive
// provider webhooks behind a load balancer.
type RedisCallbackStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCallbackStore creates a new Redis-based callback dedup store
func NewRedisCallbackStore(cfg RedisConfig) (*RedisCallbackStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCallbackStore{
		client:    client,
		keyPrefix: "payment:callback:",
	}, nil
}

// NewRedisCallbackStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisCallbackStoreWithClient(client *redis.Client, keyPrefix string) *RedisCallbackStore {
	if keyPrefix == "" {
		keyPrefix = "payment:callback:"
	}
	return &RedisCallbackStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a callback ID with a TTL.
// Uses SETNX so that concurrent deliveries of the same callback race safely:
// exactly one caller sees true.
func (s *RedisCallbackStore) MarkProcessed(ctx context.Context, callbackID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + callbackID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark callback as processed: %w", err)
	}

	return result, nil
}

// IsProcessed checks if a callback has already been processed
func (s *RedisCallbackStore) IsProcessed(ctx context.Context, callbackID string) (bool, error) {
	key := s.keyPrefix + callbackID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check callback: %w", err)
	}

	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisCallbackStore) Close() error {
	return s.client.Close()
}

var _ payment.CallbackDeduper = (*RedisCallbackStore)(nil)
