package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CadenceCache remembers when each group last ran a facilitation cycle
type CadenceCache interface {
	LastCycle(ctx context.Context, groupID string) (time.Time, bool, error)
	MarkCycle(ctx context.Context, groupID string, at time.Time) error
}

type cadenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCadenceCache creates a new cadence cache. Entries expire after ttl; an expired entry reads as
// "no previous cycle", so ttl must not be shorter than the cooldown.
func NewCadenceCache(client *redis.Client, ttl time.Duration) CadenceCache {
	return &cadenceCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *cadenceCache) key(groupID string) string {
	return fmt.Sprintf("cadence:group:%s", groupID)
}

func (c *cadenceCache) LastCycle(ctx context.Context, groupID string) (time.Time, bool, error) {
	data, err := c.client.Get(ctx, c.key(groupID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	nanos, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cadence entry for group %s: %w", groupID, err)
	}
	return time.Unix(0, nanos), true, nil
}

func (c *cadenceCache) MarkCycle(ctx context.Context, groupID string, at time.Time) error {
	return c.client.Set(ctx, c.key(groupID), strconv.FormatInt(at.UnixNano(), 10), c.ttl).Err()
}
