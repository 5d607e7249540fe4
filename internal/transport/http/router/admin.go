package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/core/auth"
	"go-gin-library/internal/core/config"
	"go-gin-library/internal/core/server"
	"go-gin-library/internal/service"
	"go-gin-library/internal/transport/http/handler"
	mdw "go-gin-library/internal/transport/http/middleware"
)

type AdminDeps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Limits  config.Limits
	CORS    []string
	Ping    func(context.Context) error
	Users   *service.UserService
	Ledger  *service.Ledger
	Modules []any
}

func NewAdminEngine(d AdminDeps) *gin.Engine {
	r := server.NewRouter(d.Log, d.CORS)
	useChain(r, d.Log, d.Limits)
	mountOps(r, d.Ping)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, auth.AdminOnly...))

	handler.NewAdminHandler(d.Users, d.Ledger, d.Log).Mount(admin)

	NewRegistry(d.Modules...).MountAdmin(admin)
	MountAllAdmin(admin)
	return r
}
