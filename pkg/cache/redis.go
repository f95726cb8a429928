package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient caches rendered responses (intel reports, comparisons) so
// repeated page views within the TTL skip report generation entirely. The
// per-player stats cache lives in the FileStore, not here.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client with connection retry logic
func NewRedisClient(url string) (*RedisClient, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			log.Printf("Connected to Redis")
			return &RedisClient{client: client}, nil
		}
		log.Printf("[WARN] Redis connection attempt %d failed, retrying...", i+1)
		time.Sleep(time.Second * 2)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 3 attempts")
}

// Get retrieves and unmarshals a JSON value from cache
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()

	if err == redis.Nil {
		return ErrCacheMiss
	}

	if err != nil {
		log.Printf("[ERROR] Redis error for key '%s': %v", key, err)
		return fmt.Errorf("redis error: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}

	return nil
}

// Set marshals and stores a value as JSON in cache
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonBytes, expiration).Err(); err != nil {
		log.Printf("[ERROR] Failed to set cache key '%s': %v", key, err)
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Delete removes a key from cache
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// HealthCheck returns true if Redis is responsive
func (r *RedisClient) HealthCheck(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
