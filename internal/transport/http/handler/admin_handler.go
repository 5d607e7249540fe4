package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/domain"
	"go-gin-library/internal/service"
	httpez "go-gin-library/internal/transport/http/ez"
)

// AdminHandler serves the /admin/v1 group; the group itself is gated to admins.
type AdminHandler struct {
	users  *service.UserService
	ledger *service.Ledger
	log    *zap.Logger
}

func NewAdminHandler(users *service.UserService, ledger *service.Ledger, l *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, ledger: ledger, log: l}
}

type userListQ struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
	Q           string `form:"q"` // email/name substring
	WithDeleted bool   `form:"with_deleted"`
}

type userRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	Banned    bool      `json:"banned"`
}

type userListOut struct {
	Total int64     `json:"total"`
	Items []userRow `json:"items"`
}

type roleIn struct {
	Role string `json:"role" binding:"required"`
}

type borrowListQ struct {
	UserID      string `form:"user_id"`
	Outstanding bool   `form:"outstanding"`
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
}

type borrowListOut struct {
	Total int64                 `json:"total"`
	Items []domain.BorrowRecord `json:"items"`
}

func (h *AdminHandler) Mount(admin *gin.RouterGroup) {
	e := httpez.New(admin, h.log)

	httpez.RegisterAction(e, httpez.Action[userListQ, userListOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *userListQ) (userListOut, error) {
			us, total, err := h.users.List(c.Request.Context(), domain.UserFilter{
				Q: in.Q, WithDeleted: in.WithDeleted, Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return userListOut{}, err
			}
			out := userListOut{Total: total, Items: make([]userRow, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, userRow{
					ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
					CreatedAt: u.CreatedAt, Banned: u.DeletedAt.Valid,
				})
			}
			return out, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == httpez.CallerID(c) {
				return nil, httpez.BadRequest("cannot ban yourself")
			}
			if err := h.users.Ban(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[roleIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (gin.H, error) {
			id := c.Param("id")
			if err := h.users.SetRole(c.Request.Context(), id, in.Role); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "role": in.Role}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[borrowListQ, borrowListOut]{
		Method: http.MethodGet,
		Path:   "/borrows",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *borrowListQ) (borrowListOut, error) {
			recs, total, err := h.ledger.ListAll(c.Request.Context(), domain.BorrowFilter{
				UserID: in.UserID, Outstanding: in.Outstanding, Offset: in.Offset, Limit: in.Limit,
			})
			if err != nil {
				return borrowListOut{}, err
			}
			return borrowListOut{Total: total, Items: recs}, nil
		},
	})
}
