package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
)

// DefaultChannelLinkTTL bounds how long a deactivated link keeps being
// honored from cache.
const DefaultChannelLinkTTL = 5 * time.Minute

// negativeEntry marks chats known to have no active link, so repeated
// posts from unlinked channels skip the database.
const negativeEntry = "none"

// ChannelLinkCache decorates a settings repository with a Redis
// read-through cache. With a nil client every call goes straight to the
// inner repository.
type ChannelLinkCache struct {
	inner  repository.ISettings
	client *redis.Client
	ttl    time.Duration
}

func NewChannelLinkCache(inner repository.ISettings, client *redis.Client, ttl time.Duration) *ChannelLinkCache {
	if ttl <= 0 {
		ttl = DefaultChannelLinkTTL
	}
	return &ChannelLinkCache{inner: inner, client: client, ttl: ttl}
}

func (c *ChannelLinkCache) GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error) {
	if c.client == nil {
		return c.inner.GetChannelLink(ctx, chatID)
	}

	key := fmt.Sprintf("channel_link:%d", chatID)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if raw == negativeEntry {
			return nil, nil
		}
		link := &model.ChannelLink{}
		if err := json.Unmarshal([]byte(raw), link); err == nil {
			return link, nil
		}
		// Corrupt entry falls through to the repository.
	} else if err != redis.Nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Redis read failed - falling back to database")
	}

	link, err := c.inner.GetChannelLink(ctx, chatID)
	if err != nil {
		return nil, err
	}

	value := negativeEntry
	if link != nil {
		if data, err := json.Marshal(link); err == nil {
			value = string(data)
		}
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Redis write failed")
	}
	return link, nil
}

var _ repository.ISettings = (*ChannelLinkCache)(nil)
