package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through Redis cache. A nil *Cache disables caching.
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.RDB.Close()
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// concurrent misses on one key share a single load
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Version returns the current generation of a key namespace.
func (c *Cache) Version(ctx context.Context, ns string) (int64, error) {
	n, err := c.RDB.Get(ctx, versionKey(ns)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// Bump moves a namespace to a new generation; old keys expire on their own.
func (c *Cache) Bump(ctx context.Context, ns string) error {
	if c == nil {
		return nil
	}
	return c.RDB.Incr(ctx, versionKey(ns)).Err()
}

func versionKey(ns string) string { return ns + ":version" }

func namespaced(ns string, version int64, key string) string {
	return ns + ":v" + strconv.FormatInt(version, 10) + ":" + key
}
