package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-gin-library/internal/domain"
)

type BookRepo struct{ db *gorm.DB }

func NewBookRepo(db *gorm.DB) *BookRepo { return &BookRepo{db: db} }

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) error {
	return classify("create book", r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookRepo) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	var b domain.Book
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find book", err)
	}
	return &b, nil
}

func (r *BookRepo) Update(ctx context.Context, id string, p domain.BookPatch) (bool, error) {
	fields := map[string]any{}
	if p.ISBN != nil {
		fields["isbn"] = *p.ISBN
	}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Author != nil {
		fields["author"] = *p.Author
	}
	if p.PublishedYear != nil {
		fields["published_year"] = *p.PublishedYear
	}
	if p.Quantity != nil {
		fields["quantity"] = *p.Quantity
	}
	if len(fields) == 0 {
		// nothing to write; still report whether the row exists
		b, err := r.FindByID(ctx, id)
		return b != nil, err
	}
	res := r.db.WithContext(ctx).Model(&domain.Book{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, classify("update book", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *BookRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Book{})
	if res.Error != nil {
		return false, classify("delete book", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *BookRepo) List(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&books).Error; err != nil {
		return nil, classify("list books", err)
	}
	return books, nil
}

func (r *BookRepo) Search(ctx context.Context, term string) ([]domain.Book, error) {
	like := likePattern(term)
	var books []domain.Book
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(author) LIKE ? ESCAPE '!' OR LOWER(isbn) LIKE ? ESCAPE '!'", like, like, like).
		Order("title ASC").
		Find(&books).Error
	if err != nil {
		return nil, classify("search books", err)
	}
	return books, nil
}

func (r *BookRepo) AvailableByAuthor(ctx context.Context, author string, limit int) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.WithContext(ctx).
		Where("author = ? AND quantity > 0", author).
		Order("title ASC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, classify("books by author", err)
	}
	return books, nil
}

func (r *BookRepo) TakeCopy(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ? AND quantity > 0", id).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return false, classify("take copy", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *BookRepo) ReturnCopy(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + 1"))
	if res.Error != nil {
		return false, classify("return copy", res.Error)
	}
	return res.RowsAffected == 1, nil
}
