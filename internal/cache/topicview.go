// Package cache holds per-user topic views computed by the reminder service.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "payetavie:topicview:"

// DefaultTTL bounds how long a view survives without an invalidation.
const DefaultTTL = 10 * time.Minute

func topicKey(userID, topicSlug string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID, topicSlug)
}

type RedisTopicCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to addr and verifies the server answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisTopicCache(client *redis.Client, ttl time.Duration) *RedisTopicCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTopicCache{client: client, ttl: ttl}
}

func (c *RedisTopicCache) Get(ctx context.Context, userID, topicSlug string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, topicKey(userID, topicSlug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read topic view: %w", err)
	}
	return data, true, nil
}

func (c *RedisTopicCache) Set(ctx context.Context, userID, topicSlug string, data []byte) error {
	if err := c.client.Set(ctx, topicKey(userID, topicSlug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write topic view: %w", err)
	}
	return nil
}

func (c *RedisTopicCache) Invalidate(ctx context.Context, userID, topicSlug string) error {
	if err := c.client.Del(ctx, topicKey(userID, topicSlug)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate topic view: %w", err)
	}
	return nil
}
