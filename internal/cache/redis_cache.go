package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairchat/pairchat/internal/config"
)

// RedisContactCache implements ContactCache on Redis.
type RedisContactCache struct {
	client *redis.Client
	prefix string
}

// NewRedisContactCache connects to Redis and returns a contact cache.
func NewRedisContactCache(cfg config.RedisConfig, prefix string) (*RedisContactCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisContactCache{
		client: client,
		prefix: prefix,
	}, nil
}

func (c *RedisContactCache) BuildKey(userID string) string {
	return fmt.Sprintf("%s:contacts:%s", c.prefix, userID)
}

func (c *RedisContactCache) Get(ctx context.Context, key string) (*ContactListResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result ContactListResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisContactCache) Set(ctx context.Context, key string, result *ContactListResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

// Invalidate drops every contact-list entry under the prefix.
func (c *RedisContactCache) Invalidate(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:contacts:*", c.prefix)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan redis keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisContactCache) Close() error {
	return c.client.Close()
}
