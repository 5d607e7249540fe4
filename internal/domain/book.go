package domain

import (
	"context"
	"time"
)

// Book.Quantity is the number of copies currently available for borrowing.
type Book struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ISBN          string    `gorm:"column:isbn;size:32;index" json:"ISBN"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Author        string    `gorm:"size:255;index" json:"author"`
	PublishedYear int       `json:"publishedYear"`
	Quantity      int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Book) TableName() string { return "books" }

// BookPatch carries a partial update; nil fields are left untouched.
type BookPatch struct {
	ISBN          *string
	Title         *string
	Author        *string
	PublishedYear *int
	Quantity      *int
}

func (p BookPatch) Empty() bool {
	return p.ISBN == nil && p.Title == nil && p.Author == nil && p.PublishedYear == nil && p.Quantity == nil
}

type BookRepository interface {
	Create(ctx context.Context, b *Book) error
	FindByID(ctx context.Context, id string) (*Book, error)
	Update(ctx context.Context, id string, p BookPatch) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Book, error)
	// Search matches term case-insensitively as a substring of title, author or ISBN.
	Search(ctx context.Context, term string) ([]Book, error)
	AvailableByAuthor(ctx context.Context, author string, limit int) ([]Book, error)
	// TakeCopy decrements quantity only when it is positive. false means no row matched.
	TakeCopy(ctx context.Context, id string) (bool, error)
	// ReturnCopy increments quantity. false means the book no longer exists.
	ReturnCopy(ctx context.Context, id string) (bool, error)
}
