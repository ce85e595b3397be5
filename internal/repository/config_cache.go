package repository

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"greengate-back/internal/apperrors"
)

const configCachePrefix = "greengate:config:"

// ConfigCache is a read-through cache in front of ConfigRepository.
type ConfigCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewConfigCache(rdb *goredis.Client, ttl time.Duration) *ConfigCache {
	return &ConfigCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *ConfigCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, configCachePrefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", apperrors.ErrConfigKeyNotFound
		}

		return "", err
	}

	return value, nil
}

func (c *ConfigCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, configCachePrefix+key, value, c.ttl).Err()
}

func (c *ConfigCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, configCachePrefix+key).Err()
}
