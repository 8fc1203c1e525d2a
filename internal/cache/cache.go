package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss means the key is absent or expired; callers fall back to the DB
var ErrMiss = errors.New("cache miss")

// Client wraps Redis for short-lived report snapshots. The whole layer is
// optional: when REDIS_URL is unset, Default stays nil and every report is
// computed fresh.
type Client struct {
	rdb *redis.Client
}

// Default is set once at startup when Redis is configured
var Default *Client

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// SetJSON stores a snapshot with a TTL
func (c *Client) SetJSON(key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.rdb.Set(context.Background(), key, jsonData, ttl).Err()
}

// GetJSON loads a snapshot into dest, or ErrMiss
func (c *Client) GetJSON(key string, dest interface{}) error {
	val, err := c.rdb.Get(context.Background(), key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return json.Unmarshal([]byte(val), dest)
}

// Invalidate drops a snapshot early (e.g. after a void)
func (c *Client) Invalidate(key string) error {
	return c.rdb.Del(context.Background(), key).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
