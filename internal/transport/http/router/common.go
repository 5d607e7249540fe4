package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-library/internal/core/config"
	mdw "go-gin-library/internal/transport/http/middleware"
	resp "go-gin-library/internal/transport/http/response"
)

func useChain(r *gin.Engine, l *zap.Logger, lim config.Limits) {
	r.Use(mdw.RequestID())
	if lim.RPS > 0 {
		burst := lim.Burst
		if burst <= 0 {
			burst = int(lim.RPS) + 1
		}
		r.Use(mdw.RateLimitPerIP(rate.Limit(lim.RPS), burst))
	}
	if lim.Concurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.Concurrency))
	}
	if lim.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.RequestTimeout > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.RequestTimeout) * time.Second))
	}
	r.Use(
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
}

// mountOps adds /health and /metrics. ping may be nil.
func mountOps(r *gin.Engine, ping func(context.Context) error) {
	r.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnavailable, err.Error()))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
