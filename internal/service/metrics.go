package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"go-gin-library/internal/domain"
)

var (
	borrowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "library_borrow_total", Help: "Borrow attempts by result"},
		[]string{"result"},
	)
	returnTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "library_return_total", Help: "Return attempts by result"},
		[]string{"result"},
	)
)

func init() { prometheus.MustRegister(borrowTotal, returnTotal) }

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBorrowLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrBookUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	}
	return "error"
}
