// Package repotest opens throwaway SQLite stores for tests.
package repotest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-library/internal/core/database"
	"go-gin-library/internal/repo"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to the test. It holds a
// single connection, so concurrent transactions queue behind each other the
// same way SQLite's single writer would order them on disk.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_busy_timeout=5000", name, seq.Add(1))
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
		Log:          zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db, repo.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Store is Open wrapped in the gorm record store.
func Store(t testing.TB) *repo.Store {
	t.Helper()
	return repo.NewStore(Open(t))
}
