package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"conkiri_sight/internal/adapters/observability"
)

const scanBatch = 100

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// Cache stores JSON values under a key prefix so several deployments can
// share one Redis database.
type Cache struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), "sight:")
}

func NewFromClient(c *redis.Client, prefix string) *Cache {
	return &Cache{c: c, prefix: prefix}
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache("redis", "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		// stale shape from an older release; treat as a miss
		observability.ObserveCache("redis", "miss")
		_ = r.c.Del(ctx, r.prefix+key).Err()
		return false, nil
	}
	observability.ObserveCache("redis", "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, r.prefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, r.prefix+key).Err()
}

// DelPrefix deletes every key under prefix. It iterates with SCAN.
func (r *Cache) DelPrefix(ctx context.Context, prefix string) (int, error) {
	pattern := globEscaper.Replace(r.prefix+prefix) + "*"
	iter := r.c.Scan(ctx, 0, pattern, scanBatch).Iterator()

	var (
		n     int
		batch []string
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		removed, err := r.c.Del(ctx, batch...).Result()
		n += int(removed)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return n, err
	}
	if err := flush(); err != nil {
		return n, err
	}
	observability.ObserveCache("redis", "del")
	return n, nil
}
