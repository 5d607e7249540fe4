package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-gin-library/internal/domain"
)

const catalogNS = "catalog"

// Catalog caches book listings under a versioned namespace. Any write that
// changes a book (catalog edits, borrows, returns) calls Invalidate.
type Catalog struct {
	c   *Cache
	ttl time.Duration
	log *zap.Logger
}

func NewCatalog(c *Cache, ttl time.Duration, l *zap.Logger) *Catalog {
	return &Catalog{c: c, ttl: ttl, log: l}
}

func (k *Catalog) Books(ctx context.Context, key string, load func(context.Context) ([]domain.Book, error)) ([]domain.Book, error) {
	if k == nil || k.c == nil {
		return load(ctx)
	}
	ver, err := k.c.Version(ctx, catalogNS)
	if err != nil {
		k.log.Warn("catalog cache unavailable", zap.Error(err))
		return load(ctx)
	}
	out, err := GetOrLoadJSON(k.c, ctx, namespaced(catalogNS, ver, key), k.ttl, func(ctx context.Context) (*[]domain.Book, error) {
		books, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return &books, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return *out, nil
}

func (k *Catalog) Invalidate(ctx context.Context) {
	if k == nil || k.c == nil {
		return
	}
	if err := k.c.Bump(ctx, catalogNS); err != nil {
		k.log.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}
