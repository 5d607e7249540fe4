package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-library/internal/domain"
)

// Store is the gorm-backed record store.
type Store struct {
	db      *gorm.DB
	users   *UserRepo
	books   *BookRepo
	borrows *BorrowRepo
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		users:   NewUserRepo(db),
		books:   NewBookRepo(db),
		borrows: NewBorrowRepo(db),
	}
}

func (s *Store) Users() domain.UserRepository     { return s.users }
func (s *Store) Books() domain.BookRepository     { return s.books }
func (s *Store) Borrows() domain.BorrowRepository { return s.borrows }

func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	if err == nil {
		return nil
	}
	// fn's own errors are already classified; only driver-level ones need it here.
	if isDomainErr(err) {
		return err
	}
	return classify("transaction", err)
}

// Models lists every table the store owns, in migration order.
func Models() []any {
	return []any{&domain.User{}, &domain.Book{}, &domain.BorrowRecord{}}
}

func forUpdate(db *gorm.DB) *gorm.DB {
	// SQLite has no row locks; its single writer serialises transactions instead.
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likePattern escapes LIKE wildcards with '!' so the same SQL works on
// postgres, mysql and sqlite.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

func isDomainErr(err error) bool {
	for _, e := range []error{
		domain.ErrValidation, domain.ErrBorrowLimitExceeded, domain.ErrBookUnavailable,
		domain.ErrRecordNotFound, domain.ErrBookNotFound, domain.ErrUserNotFound,
		domain.ErrEmailTaken, domain.ErrInvalidCredentials,
		domain.ErrConcurrencyConflict, domain.ErrStoreUnavailable,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// classify tags driver errors with the domain sentinel callers branch on,
// keeping the original error in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	case isConflict(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrencyConflict, err)
	case isDupKey(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrEmailTaken, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint")
}
