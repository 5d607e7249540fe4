package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-library/internal/domain"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetOrLoad_CachesValue(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()
	var calls int32

	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v1"), nil
	}

	b, err := c.GetOrLoad(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))

	b, err = c.GetOrLoad(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	c, mr := setupTestCache(t)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestGetOrLoad_NilCacheLoadsDirectly(t *testing.T) {
	var c *Cache
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("direct"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", string(b))
}

func TestGetOrLoadJSON_RoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	type payload struct{ N int }

	out, err := GetOrLoadJSON(c, context.Background(), "p", time.Minute, func(context.Context) (*payload, error) {
		return &payload{N: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, out.N)
}

func TestCatalog_InvalidateForcesReload(t *testing.T) {
	c, _ := setupTestCache(t)
	cat := NewCatalog(c, time.Minute, zap.NewNop())
	ctx := context.Background()

	qty := 1
	load := func(context.Context) ([]domain.Book, error) {
		return []domain.Book{{ID: "b1", Title: "Dune", Quantity: qty}}, nil
	}

	books, err := cat.Books(ctx, "all", load)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 1, books[0].Quantity)

	qty = 0
	books, err = cat.Books(ctx, "all", load)
	require.NoError(t, err)
	assert.Equal(t, 1, books[0].Quantity, "served from cache")

	cat.Invalidate(ctx)
	books, err = cat.Books(ctx, "all", load)
	require.NoError(t, err)
	assert.Equal(t, 0, books[0].Quantity)
}

func TestCatalog_RedisDownFallsBackToLoad(t *testing.T) {
	c, mr := setupTestCache(t)
	cat := NewCatalog(c, time.Minute, zap.NewNop())
	mr.Close()

	books, err := cat.Books(context.Background(), "all", func(context.Context) ([]domain.Book, error) {
		return []domain.Book{{ID: "b1"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, books, 1)
	cat.Invalidate(context.Background()) // logs, does not panic
}
