package kb

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache in front of the knowledge-base listing
// and detail endpoints. Query and feedback calls always go to the origin.
type Cache struct {
	client *Client
	rdb    *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewCache(client *Client, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{client: client, rdb: rdb, ttl: ttl, log: log}
}

func (c *Cache) List(ctx context.Context, filters ListFilters) ([]KnowledgeBase, error) {
	key := listKey(filters)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []KnowledgeBase
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}

	out, err := c.client.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Cache) Get(ctx context.Context, id string) (*Detail, error) {
	key := "kb:detail:" + id
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out Detail
		if err := json.Unmarshal(raw, &out); err == nil {
			return &out, nil
		}
	}

	out, err := c.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

// store is best-effort: a cache write failure never fails the request.
func (c *Cache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("kb cache write failed", "key", key, "error", err)
	}
}

func listKey(filters ListFilters) string {
	if filters.Query == "" && len(filters.Tags) == 0 {
		return "kb:list"
	}
	return "kb:list:" + filters.Query + ":" + strings.Join(filters.Tags, ",")
}
