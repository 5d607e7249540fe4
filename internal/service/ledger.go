package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-library/internal/domain"
	"go-gin-library/pkg/utils"
)

type LedgerConfig struct {
	BorrowLimit int
	LoanPeriod  time.Duration
	OpTimeout   time.Duration // upper bound for one borrow/return/list call
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		BorrowLimit: domain.DefaultBorrowLimit,
		LoanPeriod:  domain.DefaultLoanPeriod,
		OpTimeout:   3 * time.Second,
	}
}

// CatalogInvalidator is told whenever a book's quantity changes.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// Ledger owns borrow records and keeps Book.Quantity consistent with them.
//
// Borrow locks the borrower's user row, re-counts outstanding records, takes a
// copy with a conditional decrement and writes the record, all in one
// transaction. Return closes the record and restores the copy the same way.
type Ledger struct {
	store domain.Store
	cfg   LedgerConfig
	cache CatalogInvalidator
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(store domain.Store, cfg LedgerConfig, cache CatalogInvalidator, l *zap.Logger) *Ledger {
	if cfg.BorrowLimit <= 0 {
		cfg.BorrowLimit = domain.DefaultBorrowLimit
	}
	if cfg.LoanPeriod <= 0 {
		cfg.LoanPeriod = domain.DefaultLoanPeriod
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultLedgerConfig().OpTimeout
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Ledger{store: store, cfg: cfg, cache: cache, log: l, now: time.Now}
}

func (l *Ledger) Limit() int { return l.cfg.BorrowLimit }

// clock returns the current time at the precision every supported driver keeps.
func (l *Ledger) clock() time.Time { return l.now().UTC().Truncate(time.Millisecond) }

type BorrowReceipt struct {
	RecordID           string    `json:"borrowRecordId"`
	BookID             string    `json:"bookId"`
	BorrowedDate       time.Time `json:"borrowedDate"`
	ExpectedReturnDate time.Time `json:"expectedReturnDate"`
}

func (l *Ledger) Borrow(ctx context.Context, userID, bookID string) (*BorrowReceipt, error) {
	if userID == "" || bookID == "" {
		return nil, fmt.Errorf("%w: userId and bookId are required", domain.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, l.cfg.OpTimeout)
	defer cancel()

	now := l.clock()
	rec := &domain.BorrowRecord{
		ID:                 utils.NewID(),
		UserID:             userID,
		BookID:             bookID,
		BorrowedDate:       now,
		ExpectedReturnDate: now.Add(l.cfg.LoanPeriod),
	}

	err := l.store.WithTx(ctx, func(tx domain.Store) error {
		u, err := tx.Users().LockByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("%w: user %s not found", domain.ErrValidation, userID)
		}
		n, err := tx.Borrows().CountOutstanding(ctx, userID)
		if err != nil {
			return err
		}
		if n >= int64(l.cfg.BorrowLimit) {
			return domain.ErrBorrowLimitExceeded
		}
		took, err := tx.Books().TakeCopy(ctx, bookID)
		if err != nil {
			return err
		}
		if !took {
			return domain.ErrBookUnavailable
		}
		return tx.Borrows().Create(ctx, rec)
	})
	if err != nil {
		err = l.transient(ctx, err)
		borrowTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, fmt.Errorf("borrow: %w", err)
	}
	borrowTotal.WithLabelValues("ok").Inc()
	l.invalidate(ctx)
	l.log.Info("book borrowed",
		zap.String("recordId", rec.ID),
		zap.String("userId", userID),
		zap.String("bookId", bookID),
		zap.Time("expectedReturnDate", rec.ExpectedReturnDate),
	)
	return &BorrowReceipt{
		RecordID:           rec.ID,
		BookID:             rec.BookID,
		BorrowedDate:       rec.BorrowedDate,
		ExpectedReturnDate: rec.ExpectedReturnDate,
	}, nil
}

type ReturnInput struct {
	RecordID   string
	ReturnDate *time.Time // nil means now
	// UserID restricts the return to the record's owner; empty for admins.
	UserID string
}

type ReturnReceipt struct {
	RecordID        string    `json:"borrowRecordId"`
	BookID          string    `json:"bookId"`
	ReturnDate      time.Time `json:"returnDate"`
	AlreadyReturned bool      `json:"alreadyReturned"`
}

// Return closes an outstanding record. Returning a closed record is a no-op
// that reports the original return date.
func (l *Ledger) Return(ctx context.Context, in ReturnInput) (*ReturnReceipt, error) {
	if in.RecordID == "" {
		return nil, fmt.Errorf("%w: borrowedBookId is required", domain.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, l.cfg.OpTimeout)
	defer cancel()

	at := l.clock()
	if in.ReturnDate != nil {
		at = in.ReturnDate.UTC().Truncate(time.Millisecond)
	}

	var (
		out    ReturnReceipt
		orphan bool
	)
	err := l.store.WithTx(ctx, func(tx domain.Store) error {
		rec, err := tx.Borrows().LockByID(ctx, in.RecordID)
		if err != nil {
			return err
		}
		if rec == nil || (in.UserID != "" && rec.UserID != in.UserID) {
			return domain.ErrRecordNotFound
		}
		out = ReturnReceipt{RecordID: rec.ID, BookID: rec.BookID}
		if !rec.Outstanding() {
			out.ReturnDate, out.AlreadyReturned = *rec.ReturnDate, true
			return nil
		}
		if at.Before(rec.BorrowedDate) {
			return fmt.Errorf("%w: returnDate is before borrowedDate", domain.ErrValidation)
		}
		closed, err := tx.Borrows().Close(ctx, rec.ID, at)
		if err != nil {
			return err
		}
		if !closed {
			// closed by a concurrent return on a store without row locks
			cur, err := tx.Borrows().FindByID(ctx, rec.ID)
			if err != nil {
				return err
			}
			if cur == nil || cur.ReturnDate == nil {
				return domain.ErrConcurrencyConflict
			}
			out.ReturnDate, out.AlreadyReturned = *cur.ReturnDate, true
			return nil
		}
		out.ReturnDate = at
		restored, err := tx.Books().ReturnCopy(ctx, rec.BookID)
		if err != nil {
			return err
		}
		orphan = !restored
		return nil
	})
	if err != nil {
		err = l.transient(ctx, err)
		returnTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, fmt.Errorf("return: %w", err)
	}

	if out.AlreadyReturned {
		returnTotal.WithLabelValues("already_returned").Inc()
		l.log.Info("book already returned", zap.String("recordId", out.RecordID))
		return &out, nil
	}
	returnTotal.WithLabelValues("ok").Inc()
	if orphan {
		l.log.Warn("returned record references a deleted book",
			zap.String("recordId", out.RecordID), zap.String("bookId", out.BookID))
	} else {
		l.invalidate(ctx)
	}
	l.log.Info("book returned", zap.String("recordId", out.RecordID), zap.Time("returnDate", out.ReturnDate))
	return &out, nil
}

// ListByUser returns every record of the user, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]domain.BorrowRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, l.cfg.OpTimeout)
	defer cancel()

	recs, err := l.store.Borrows().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrows: %w", l.transient(ctx, err))
	}
	if recs == nil {
		recs = []domain.BorrowRecord{}
	}
	return recs, nil
}

// ListAll is the admin audit view.
func (l *Ledger) ListAll(ctx context.Context, f domain.BorrowFilter) ([]domain.BorrowRecord, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, l.cfg.OpTimeout)
	defer cancel()

	recs, total, err := l.store.Borrows().List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list borrows: %w", l.transient(ctx, err))
	}
	if recs == nil {
		recs = []domain.BorrowRecord{}
	}
	return recs, total, nil
}

// transient marks errors caused by the operation deadline as store failures.
func (l *Ledger) transient(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func (l *Ledger) invalidate(ctx context.Context) {
	if l.cache != nil {
		l.cache.Invalidate(context.WithoutCancel(ctx))
	}
}
