package cache

import (
	"auticonnect/internal/model"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache tracks which users are in an active individual-support session
type SessionCache interface {
	Set(ctx context.Context, session *model.SupportSession) error
	Get(ctx context.Context, userID string) (*model.SupportSession, error)
	Delete(ctx context.Context, userID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) Set(ctx context.Context, session *model.SupportSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "support_session:"+session.UserID, data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, userID string) (*model.SupportSession, error) {
	data, err := c.client.Get(ctx, "support_session:"+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.SupportSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, "support_session:"+userID).Err()
}
