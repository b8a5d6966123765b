package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lawfort/internal/user/model"
	"lawfort/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps resolved sessions in Redis so authenticated requests
// skip the sessions join. A nil client disables it.
type SessionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{Client: client, TTL: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *SessionCache) enabled() bool {
	return c != nil && c.Client != nil
}

func (c *SessionCache) Get(ctx context.Context, id string) (model.Session, bool) {
	if !c.enabled() {
		return model.Session{}, false
	}
	value, err := c.Client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return model.Session{}, false
	}
	if err != nil {
		logger.Sugar.Warnf("Session cache read failed: %v", err)
		return model.Session{}, false
	}
	var s model.Session
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return model.Session{}, false
	}
	return s, true
}

// Set caches s for the shorter of the cache TTL and the session lifetime.
func (c *SessionCache) Set(ctx context.Context, s model.Session) {
	if !c.enabled() {
		return
	}
	ttl := c.TTL
	if left := time.Until(s.ExpiresAt); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		logger.Sugar.Warnf("Session cache write failed: %v", err)
	}
}

func (c *SessionCache) Delete(ctx context.Context, ids ...string) {
	if !c.enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		logger.Sugar.Warnf("Session cache delete failed: %v", err)
	}
}
