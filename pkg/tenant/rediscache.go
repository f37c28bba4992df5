package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolution results across instances, which keeps the
// directory table cold even when many app servers front the same tenants.
type redisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a tenant cache backed by Redis. Falls back to a
// miss on any Redis error, so a degraded Redis only costs directory reads.
func NewRedisCache(client redis.UniversalClient) Cache {
	return &redisCache{client: client, keyPrefix: "tenant:resolve:"}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// Corrupt entry: drop it so the next request repopulates.
		_ = c.client.Del(ctx, c.keyPrefix+key).Err()
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.keyPrefix+key).Err()
}

func (c *redisCache) Close() error {
	return nil
}
