package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"crossposter/infrastructure/logger"
)

// NewCache creates a Redis client. A failed ping returns (nil, err); the
// caller degrades to uncached lookups.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Redis not available - continuing without cache")
		return nil, err
	}
	return client, nil
}
