package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Badge image keys expire on their own; this prefix is shared with the
// badge rendering endpoint in the admin portal.
const badgeKeyPrefix = "badge:"

// RedisBadgeCache clears rendered badge images in Redis so a domain that
// stopped being green never serves a stale green badge.
type RedisBadgeCache struct {
	client *redis.Client
}

func NewRedisBadgeCache(client *redis.Client) *RedisBadgeCache {
	return &RedisBadgeCache{client: client}
}

func (c *RedisBadgeCache) Clear(ctx context.Context, domains ...string) error {
	if len(domains) == 0 {
		return nil
	}
	keys := make([]string, len(domains))
	for i, domain := range domains {
		keys[i] = badgeKeyPrefix + domain
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear badge cache: %w", err)
	}
	return nil
}

var _ BadgeCache = (*RedisBadgeCache)(nil)
