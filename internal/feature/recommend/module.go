// Package recommend mounts the author-based recommendation endpoint as a
// self-registering API module.
package recommend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/service"
	httpez "go-gin-library/internal/transport/http/ez"
)

type Module struct {
	rec *service.Recommender
	log *zap.Logger
}

func New(rec *service.Recommender, l *zap.Logger) *Module {
	return &Module{rec: rec, log: l}
}

func (m *Module) Priority() int { return 50 }

type out struct {
	Recommendations []service.Recommendation `json:"recommendations"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(api, m.log), httpez.Action[struct{}, out]{
		Method: http.MethodGet,
		Path:   "/recommendations/author/:authorName",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (out, error) {
			recs, err := m.rec.ByAuthor(c.Request.Context(), c.Param("authorName"))
			if err != nil {
				return out{}, err
			}
			return out{Recommendations: recs}, nil
		},
	})
}
