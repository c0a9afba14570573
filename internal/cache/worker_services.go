// Package cache keeps worker service sets in Redis so pending-request listings do not
// hit the database on every poll.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "krizo:worker_services:"

type WorkerServicesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWorkerServicesCache connects using a redis:// URL.
func NewWorkerServicesCache(redisURL string, ttl time.Duration) (*WorkerServicesCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewWorkerServicesCacheWithClient(redis.NewClient(opt), ttl), nil
}

func NewWorkerServicesCacheWithClient(client *redis.Client, ttl time.Duration) *WorkerServicesCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &WorkerServicesCache{client: client, ttl: ttl}
}

func Key(uid string) string {
	return keyPrefix + uid
}

// Get returns the cached set; ok is false on a miss.
func (c *WorkerServicesCache) Get(ctx context.Context, uid string) ([]workflow.ServiceType, bool, error) {
	raw, err := c.client.Get(ctx, Key(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var types []workflow.ServiceType
	if err := json.Unmarshal(raw, &types); err != nil {
		return nil, false, err
	}
	return types, true, nil
}

func (c *WorkerServicesCache) Set(ctx context.Context, uid string, types []workflow.ServiceType) error {
	if types == nil {
		types = []workflow.ServiceType{}
	}
	b, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(uid), b, c.ttl).Err()
}

func (c *WorkerServicesCache) Invalidate(ctx context.Context, uid string) error {
	return c.client.Del(ctx, Key(uid)).Err()
}

func (c *WorkerServicesCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *WorkerServicesCache) Close() error {
	return c.client.Close()
}
