package ez

import (
	"errors"
	"fmt"

	"go-gin-library/internal/domain"
	resp "go-gin-library/internal/transport/http/response"
)

// Client-facing messages for business-rule failures.
const (
	MsgBookUnavailable    = "Book not available for borrowing."
	MsgRecordNotFound     = "Borrowed book record not found."
	MsgBookNotFound       = "Book not found."
	MsgUserNotFound       = "User not found."
	MsgInvalidCredentials = "Invalid email or password."
	MsgEmailTaken         = "Email already registered."
	MsgConflict           = "Request conflicted with a concurrent update, please retry."
)

// LimitMessage is the borrow-limit refusal for a limit of n books.
func LimitMessage(n int) string {
	return fmt.Sprintf("You have already borrowed %d books.", n)
}

// FromDomain maps service errors onto envelope codes. Errors that are
// already *AErr pass through; unknown errors become 500 with the raw message.
func FromDomain(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domain.ErrBorrowLimitExceeded):
		return &AErr{Code: resp.CodeBadRequest, Msg: LimitMessage(domain.DefaultBorrowLimit), Err: err}
	case errors.Is(err, domain.ErrBookUnavailable):
		return &AErr{Code: resp.CodeBadRequest, Msg: MsgBookUnavailable, Err: err}
	case errors.Is(err, domain.ErrValidation):
		return &AErr{Code: resp.CodeBadRequest, Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &AErr{Code: resp.CodeUnauthorized, Msg: MsgInvalidCredentials, Err: err}
	case errors.Is(err, domain.ErrRecordNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: MsgRecordNotFound, Err: err}
	case errors.Is(err, domain.ErrBookNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: MsgBookNotFound, Err: err}
	case errors.Is(err, domain.ErrUserNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: MsgUserNotFound, Err: err}
	case errors.Is(err, domain.ErrEmailTaken):
		return &AErr{Code: resp.CodeConflict, Msg: MsgEmailTaken, Err: err}
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return &AErr{Code: resp.CodeConflict, Msg: MsgConflict, Err: err}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return &AErr{Code: resp.CodeUnavailable, Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Err: err}
}
