package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/core/auth"
	"go-gin-library/internal/domain"
	"go-gin-library/internal/service"
	httpez "go-gin-library/internal/transport/http/ez"
)

type BookHandler struct {
	catalog *service.Catalog
	log     *zap.Logger
}

func NewBookHandler(catalog *service.Catalog, l *zap.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, log: l}
}

type bookIn struct {
	ISBN          string `json:"ISBN"`
	Title         string `json:"title" binding:"required"`
	Author        string `json:"author"`
	PublishedYear int    `json:"publishedYear"`
	Quantity      int    `json:"quantity"`
}

type bookPatchIn struct {
	ISBN          *string `json:"ISBN"`
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	PublishedYear *int    `json:"publishedYear"`
	Quantity      *int    `json:"quantity"`
}

type searchQ struct {
	Search string `form:"search"`
}

type messageOut struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// Mount registers catalog reads on the public group and catalog edits on
// the authenticated one, where only admins pass the gate.
func (h *BookHandler) Mount(public, member *gin.RouterGroup) {
	pub := httpez.New(public, h.log)
	mem := httpez.New(member, h.log)

	httpez.RegisterAction(pub, httpez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/book/getbooks",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			books, err := h.catalog.List(c.Request.Context())
			if err != nil {
				return nil, err
			}
			return gin.H{"books": books}, nil
		},
	})

	httpez.RegisterAction(pub, httpez.Action[searchQ, gin.H]{
		Method: http.MethodGet,
		Path:   "/book/search",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *searchQ) (gin.H, error) {
			books, err := h.catalog.Search(c.Request.Context(), in.Search)
			if err != nil {
				return nil, err
			}
			return gin.H{"results": books}, nil
		},
	})

	httpez.RegisterAction(pub, httpez.Action[struct{}, *domain.Book]{
		Method: http.MethodGet,
		Path:   "/book/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Book, error) {
			return h.catalog.Get(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(mem, httpez.Action[bookIn, messageOut]{
		Method: http.MethodPost,
		Path:   "/book/addbooks",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  auth.AdminOnly,
		Handler: func(c *gin.Context, in *bookIn) (messageOut, error) {
			b, err := h.catalog.Add(c.Request.Context(), service.BookInput{
				ISBN:          in.ISBN,
				Title:         in.Title,
				Author:        in.Author,
				PublishedYear: in.PublishedYear,
				Quantity:      in.Quantity,
			})
			if err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Book added successfully.", ID: b.ID}, nil
		},
	})

	httpez.RegisterAction(mem, httpez.Action[bookPatchIn, messageOut]{
		Method: http.MethodPatch,
		Path:   "/book/update/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  auth.AdminOnly,
		Handler: func(c *gin.Context, in *bookPatchIn) (messageOut, error) {
			p := domain.BookPatch{
				ISBN:          trimmed(in.ISBN),
				Title:         in.Title,
				Author:        trimmed(in.Author),
				PublishedYear: in.PublishedYear,
				Quantity:      in.Quantity,
			}
			if err := h.catalog.Update(c.Request.Context(), c.Param("id"), p); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Book updated successfully."}, nil
		},
	})

	httpez.RegisterAction(mem, httpez.Action[struct{}, messageOut]{
		Method: http.MethodDelete,
		Path:   "/book/delete/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  auth.AdminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (messageOut, error) {
			if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Book deleted successfully."}, nil
		},
	})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
