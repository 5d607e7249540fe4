// Package app wires config into the store, cache and services shared by
// the api and admin binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-library/internal/core/auth"
	"go-gin-library/internal/core/cache"
	"go-gin-library/internal/core/config"
	"go-gin-library/internal/core/database"
	"go-gin-library/internal/core/logger"
	"go-gin-library/internal/repo"
	"go-gin-library/internal/service"
)

type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Store *repo.Store
	Cache *cache.Cache // nil when redis.addr is empty
	JWT   *auth.JWTer

	Catalog     *service.Catalog
	Ledger      *service.Ledger
	Users       *service.UserService
	Recommender *service.Recommender

	closers []func()
}

// NewLogger builds the process logger from cfg.Log and routes the standard
// library logger into it.
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	var (
		l       *zap.Logger
		cleanup func()
	)
	if cfg.Log.File.Enable {
		l, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		})
	} else {
		l, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	undo := logger.RedirectStdLog(l, zapcore.InfoLevel)
	return l, func() {
		undo()
		cleanup()
	}
}

func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		SlowThresholdMs:    cfg.DB.SlowThresholdMs,
		Log:                l,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, repo.Models()...); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}
	a.Store = repo.NewStore(db)

	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			// the catalog falls back to the database while redis is down
			l.Warn("redis unreachable, continuing", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		a.Cache = c
		a.closers = append(a.closers, func() { _ = c.Close() })
	}
	books := cache.NewCatalog(a.Cache, time.Duration(cfg.Cache.TTLSec)*time.Second, l.Named("cache"))

	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	a.Catalog = service.NewCatalog(a.Store.Books(), books, l.Named("catalog"))
	a.Ledger = service.NewLedger(a.Store, service.LedgerConfig{
		BorrowLimit: cfg.Ledger.BorrowLimit,
		LoanPeriod:  cfg.Ledger.LoanPeriod(),
		OpTimeout:   cfg.Ledger.OpTimeout(),
	}, books, l.Named("ledger"))
	a.Users = service.NewUserService(a.Store.Users(), a.JWT, l.Named("users"))
	a.Recommender = service.NewRecommender(a.Store.Books(), books)
	return a, nil
}

// Ping reports whether the database answers.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
