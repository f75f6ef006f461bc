// Package redisstore caches recent room history in Redis with a
// cache-aside pattern. The database stays the source of truth; any
// cache failure is logged and the call falls through to the inner
// store.
package redisstore

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamerhubx/chat-platform/internal/chat"
)

const keyPrefix = "chat:history:"

type CachedHistory struct {
	inner  chat.HistoryStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedHistory(inner chat.HistoryStore, client *redis.Client, ttl time.Duration) *CachedHistory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedHistory{inner: inner, client: client, ttl: ttl}
}

// Append writes through to the inner store and invalidates the room's
// cached window.
func (c *CachedHistory) Append(ctx context.Context, room, author, content string) (*chat.Message, error) {
	m, err := c.inner.Append(ctx, room, author, content)
	if err != nil {
		return nil, err
	}
	if err := c.client.Del(ctx, keyPrefix+room).Err(); err != nil {
		log.Printf("history cache del room=%s err=%v", room, err)
	}
	return m, nil
}

// Recent serves the default-size window from Redis when possible.
// Non-default limits bypass the cache entirely.
func (c *CachedHistory) Recent(ctx context.Context, room string, limit int) ([]chat.Message, error) {
	if limit > 0 && limit != chat.DefaultHistoryLimit {
		return c.inner.Recent(ctx, room, limit)
	}

	key := keyPrefix + room
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var msgs []chat.Message
		if uerr := json.Unmarshal(data, &msgs); uerr == nil {
			return msgs, nil
		} else {
			log.Printf("history cache decode room=%s err=%v", room, uerr)
		}
	} else if err != redis.Nil {
		log.Printf("history cache get room=%s err=%v", room, err)
	}

	msgs, err := c.inner.Recent(ctx, room, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(msgs); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("history cache set room=%s err=%v", room, err)
		}
	}
	return msgs, nil
}
