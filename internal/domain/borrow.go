package domain

import (
	"context"
	"time"
)

const (
	DefaultBorrowLimit = 3
	DefaultLoanPeriod  = 14 * 24 * time.Hour
)

// BorrowRecord is outstanding while ReturnDate is nil. Records are never deleted.
type BorrowRecord struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	UserID             string     `gorm:"size:36;not null;index:idx_borrow_user_open,priority:1" json:"userId"`
	BookID             string     `gorm:"size:36;not null;index" json:"bookId"`
	BorrowedDate       time.Time  `gorm:"not null" json:"borrowedDate"`
	ExpectedReturnDate time.Time  `gorm:"not null" json:"expectedReturnDate"`
	ReturnDate         *time.Time `gorm:"index:idx_borrow_user_open,priority:2" json:"returnDate"`
}

func (BorrowRecord) TableName() string { return "borrow_records" }

func (r *BorrowRecord) Outstanding() bool { return r.ReturnDate == nil }

type BorrowFilter struct {
	UserID      string
	Outstanding bool
	Offset      int
	Limit       int
}

type BorrowRepository interface {
	Create(ctx context.Context, r *BorrowRecord) error
	FindByID(ctx context.Context, id string) (*BorrowRecord, error)
	LockByID(ctx context.Context, id string) (*BorrowRecord, error)
	CountOutstanding(ctx context.Context, userID string) (int64, error)
	// Close sets ReturnDate only on an outstanding record. false means it was already closed.
	Close(ctx context.Context, id string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]BorrowRecord, error)
	List(ctx context.Context, f BorrowFilter) ([]BorrowRecord, int64, error)
}

// Store groups the repositories and runs fn atomically against them.
type Store interface {
	Users() UserRepository
	Books() BookRepository
	Borrows() BorrowRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
