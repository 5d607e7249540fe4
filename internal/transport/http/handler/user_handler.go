package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/domain"
	"go-gin-library/internal/service"
	httpez "go-gin-library/internal/transport/http/ez"
)

type UserHandler struct {
	users *service.UserService
	log   *zap.Logger
}

func NewUserHandler(users *service.UserService, l *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: l}
}

type registerIn struct {
	Name     string `json:"name"     binding:"required,max=64"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (h *UserHandler) Mount(public, member *gin.RouterGroup) {
	pub := httpez.New(public, h.log)

	httpez.RegisterAction(pub, httpez.Action[registerIn, messageOut]{
		Method: http.MethodPost,
		Path:   "/user/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (messageOut, error) {
			u, err := h.users.Register(c.Request.Context(), service.RegisterInput{
				Name: in.Name, Email: in.Email, Password: in.Password,
			})
			if err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "User registered successfully.", ID: u.ID}, nil
		},
	})

	httpez.RegisterAction(pub, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/user/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			tok, _, err := h.users.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{Message: "Login successful.", Token: tok}, nil
		},
	})

	httpez.RegisterAction(httpez.New(member, h.log), httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.users.Get(c.Request.Context(), httpez.CallerID(c))
		},
	})
}
