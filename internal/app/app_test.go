package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-library/internal/core/config"
	"go-gin-library/internal/service"
)

func testConfig() *config.Config {
	var c config.Config
	c.DB.Driver = "sqlite"
	c.DB.DSN = "file:apptest?mode=memory&cache=shared"
	c.DB.MaxOpenConns = 1
	c.DB.MaxIdleConns = 1
	c.DB.AutoMigrate = true
	c.DB.LogLevel = "silent"
	c.JWT.Secret = "x"
	c.JWT.Issuer = "library"
	c.JWT.AccessTokenTTLMin = 5
	c.Ledger.BorrowLimit = 2
	c.Ledger.LoanDays = 7
	c.Ledger.OpTimeoutMs = 1000
	c.Cache.TTLSec = 30
	return &c
}

func TestNew_WiresServices(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.Ping(ctx))
	assert.NotNil(t, a.Cache)
	assert.Equal(t, 2, a.Ledger.Limit())

	b, err := a.Catalog.Add(ctx, service.BookInput{Title: "Lilith's Brood", Author: "Octavia E. Butler", Quantity: 1})
	require.NoError(t, err)
	books, err := a.Catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, b.ID, books[0].ID)
	assert.NotEmpty(t, mr.Keys(), "listing went through redis")
}

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Driver = "oracle"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
