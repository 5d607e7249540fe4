package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-library/internal/app"
	"go-gin-library/internal/core/config"
	"go-gin-library/internal/core/server"
	"go-gin-library/internal/service"
	"go-gin-library/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	bootstrapAdmin(a, cfg.Bootstrap, log)

	r := router.NewAdminEngine(router.AdminDeps{
		Log:    log,
		JWT:    a.JWT,
		Limits: cfg.Limits,
		CORS:   cfg.CORS.AllowOrigins,
		Ping:   a.Ping,
		Users:  a.Users,
		Ledger: a.Ledger,
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

	baseURL := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("library admin starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("library admin failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("library admin stopped")
}

// bootstrapAdmin creates or promotes the configured admin account. Without
// an email it does nothing.
func bootstrapAdmin(a *app.App, b config.Bootstrap, log *zap.Logger) {
	if b.AdminEmail == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	changed, err := a.Users.EnsureAdmin(ctx, service.RegisterInput{
		Name:     b.AdminName,
		Email:    b.AdminEmail,
		Password: b.AdminPassword,
	})
	if err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}
	if changed {
		log.Info("bootstrap admin ready", zap.String("email", b.AdminEmail))
	}
}
