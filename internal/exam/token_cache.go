package exam

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/invigo/invigo-backend/internal/config"
)

// RedisTokenCache caches violation tokens in Redis.
type RedisTokenCache struct {
	rdb *redis.Client
}

// NewRedisTokenCache creates a new RedisTokenCache.
func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

// SetToken stores the session's token with the given TTL.
func (c *RedisTokenCache) SetToken(ctx context.Context, sessionID uuid.UUID, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, config.CacheKey.SessionViolationTokenKey(sessionID.String()), token, ttl).Err()
}

// GetToken returns the cached token, or "" on a miss.
func (c *RedisTokenCache) GetToken(ctx context.Context, sessionID uuid.UUID) (string, error) {
	val, err := c.rdb.Get(ctx, config.CacheKey.SessionViolationTokenKey(sessionID.String())).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
