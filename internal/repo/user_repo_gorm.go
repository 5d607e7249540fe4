package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-gin-library/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return classify("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, r.db, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, r.db, "email = ?", email)
}

func (r *UserRepo) LockByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, forUpdate(r.db), "id = ?", id)
}

// first returns (nil, nil) when nothing matches.
func (r *UserRepo) first(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).First(&u, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find user", err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if f.WithDeleted {
		q = q.Unscoped()
	}
	if f.Q != "" {
		like := likePattern(f.Q)
		q = q.Where("LOWER(email) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify("count users", err)
	}
	var users []domain.User
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&users).Error; err != nil {
		return nil, 0, classify("list users", err)
	}
	return users, total, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id, role string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return false, classify("set role", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return false, classify("delete user", res.Error)
	}
	return res.RowsAffected > 0, nil
}
