package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-library/internal/core/auth"
	"go-gin-library/internal/domain"
	"go-gin-library/internal/service"
	httpez "go-gin-library/internal/transport/http/ez"
)

type BorrowHandler struct {
	ledger *service.Ledger
	log    *zap.Logger
}

func NewBorrowHandler(ledger *service.Ledger, l *zap.Logger) *BorrowHandler {
	return &BorrowHandler{ledger: ledger, log: l}
}

type borrowIn struct {
	UserID string `json:"userId"` // admins may borrow on behalf of a user
	BookID string `json:"bookId" binding:"required"`
}

type borrowOut struct {
	Message            string    `json:"message"`
	BorrowRecordID     string    `json:"borrowRecordId"`
	ExpectedReturnDate time.Time `json:"expectedReturnDate"`
}

type returnIn struct {
	BorrowedBookID string     `json:"borrowedBookId" binding:"required"`
	ReturnDate     *time.Time `json:"returnDate"`
}

type returnOut struct {
	Message         string    `json:"message"`
	ReturnDate      time.Time `json:"returnDate"`
	AlreadyReturned bool      `json:"alreadyReturned"`
}

type borrowedBooksOut struct {
	BorrowedBooks []domain.BorrowRecord `json:"borrowedBooks"`
}

func (h *BorrowHandler) Mount(member *gin.RouterGroup) {
	e := httpez.New(member, h.log)

	httpez.RegisterAction(e, httpez.Action[borrowIn, borrowOut]{
		Method: http.MethodPost,
		Path:   "/borrow/borrowbooks",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  auth.AnyMember,
		Handler: func(c *gin.Context, in *borrowIn) (borrowOut, error) {
			uid, err := actingFor(c, in.UserID)
			if err != nil {
				return borrowOut{}, err
			}
			rc, err := h.ledger.Borrow(c.Request.Context(), uid, in.BookID)
			if errors.Is(err, domain.ErrBorrowLimitExceeded) {
				return borrowOut{}, httpez.BadRequest(httpez.LimitMessage(h.ledger.Limit()))
			}
			if err != nil {
				return borrowOut{}, err
			}
			return borrowOut{
				Message:            "Book borrowed successfully.",
				BorrowRecordID:     rc.RecordID,
				ExpectedReturnDate: rc.ExpectedReturnDate,
			}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[returnIn, returnOut]{
		Method: http.MethodPost,
		Path:   "/borrow/returnbooks",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  auth.AnyMember,
		Handler: func(c *gin.Context, in *returnIn) (returnOut, error) {
			ri := service.ReturnInput{RecordID: in.BorrowedBookID, ReturnDate: in.ReturnDate}
			if !httpez.IsAdmin(c) {
				ri.UserID = httpez.CallerID(c)
			}
			rc, err := h.ledger.Return(c.Request.Context(), ri)
			if err != nil {
				return returnOut{}, err
			}
			msg := "Book returned successfully."
			if rc.AlreadyReturned {
				msg = "Book was already returned."
			}
			return returnOut{Message: msg, ReturnDate: rc.ReturnDate, AlreadyReturned: rc.AlreadyReturned}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, borrowedBooksOut]{
		Method: http.MethodGet,
		Path:   "/borrow/user/:userId",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  auth.AnyMember,
		Handler: func(c *gin.Context, _ *struct{}) (borrowedBooksOut, error) {
			uid, err := actingFor(c, c.Param("userId"))
			if err != nil {
				return borrowedBooksOut{}, err
			}
			recs, err := h.ledger.ListByUser(c.Request.Context(), uid)
			if err != nil {
				return borrowedBooksOut{}, err
			}
			return borrowedBooksOut{BorrowedBooks: recs}, nil
		},
	})
}

// actingFor resolves whose records a request touches. Members act only for
// themselves; admins may name anyone and default to themselves.
func actingFor(c *gin.Context, requested string) (string, error) {
	caller := httpez.CallerID(c)
	if requested == "" || requested == caller {
		return caller, nil
	}
	if httpez.IsAdmin(c) {
		return requested, nil
	}
	return "", httpez.Forbidden("forbidden")
}
