package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-gin-library/internal/domain"
)

type BorrowRepo struct{ db *gorm.DB }

func NewBorrowRepo(db *gorm.DB) *BorrowRepo { return &BorrowRepo{db: db} }

func (r *BorrowRepo) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	return classify("create borrow record", r.db.WithContext(ctx).Create(rec).Error)
}

func (r *BorrowRepo) FindByID(ctx context.Context, id string) (*domain.BorrowRecord, error) {
	return r.first(ctx, r.db, id)
}

func (r *BorrowRepo) LockByID(ctx context.Context, id string) (*domain.BorrowRecord, error) {
	return r.first(ctx, forUpdate(r.db), id)
}

func (r *BorrowRepo) first(ctx context.Context, db *gorm.DB, id string) (*domain.BorrowRecord, error) {
	var rec domain.BorrowRecord
	err := db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find borrow record", err)
	}
	return &rec, nil
}

func (r *BorrowRepo) CountOutstanding(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).
		Where("user_id = ? AND return_date IS NULL", userID).
		Count(&n).Error
	if err != nil {
		return 0, classify("count outstanding", err)
	}
	return n, nil
}

func (r *BorrowRepo) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).
		Where("id = ? AND return_date IS NULL", id).
		UpdateColumn("return_date", at)
	if res.Error != nil {
		return false, classify("close borrow record", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *BorrowRepo) ListByUser(ctx context.Context, userID string) ([]domain.BorrowRecord, error) {
	var recs []domain.BorrowRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("borrowed_date DESC").
		Find(&recs).Error
	if err != nil {
		return nil, classify("list borrow records", err)
	}
	return recs, nil
}

func (r *BorrowRepo) List(ctx context.Context, f domain.BorrowFilter) ([]domain.BorrowRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.BorrowRecord{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Outstanding {
		q = q.Where("return_date IS NULL")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify("count borrow records", err)
	}
	var recs []domain.BorrowRecord
	if err := q.Order("borrowed_date DESC").Offset(f.Offset).Limit(f.Limit).Find(&recs).Error; err != nil {
		return nil, 0, classify("list borrow records", err)
	}
	return recs, total, nil
}
