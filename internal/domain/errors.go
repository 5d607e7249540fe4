package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrBorrowLimitExceeded = errors.New("borrow limit exceeded")
	ErrBookUnavailable     = errors.New("book not available for borrowing")
	ErrRecordNotFound      = errors.New("borrow record not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	// ErrConcurrencyConflict means a lost race; nothing was committed and the call may be retried.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStoreUnavailable means the persistence layer failed or timed out.
	ErrStoreUnavailable = errors.New("store unavailable")
)
