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

type APIDeps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Limits  config.Limits
	CORS    []string
	Ping    func(context.Context) error
	Catalog *service.Catalog
	Ledger  *service.Ledger
	Users   *service.UserService
	// Modules are mounted after the built-in routes, alongside the
	// process-wide registry.
	Modules []any
}

func NewAPIEngine(d APIDeps) *gin.Engine {
	r := server.NewRouter(d.Log, d.CORS)
	useChain(r, d.Log, d.Limits)
	mountOps(r, d.Ping)

	api := r.Group("/api/v1")
	// /me and every gated action must hang off this group to see the caller
	member := api.Group("", mdw.AuthJWT(d.JWT))

	handler.NewUserHandler(d.Users, d.Log).Mount(api, member)
	handler.NewBookHandler(d.Catalog, d.Log).Mount(api, member)
	handler.NewBorrowHandler(d.Ledger, d.Log).Mount(member)

	NewRegistry(d.Modules...).MountAPI(api)
	MountAllAPI(api)
	return r
}
