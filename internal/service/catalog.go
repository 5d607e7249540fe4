package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"go-gin-library/internal/domain"
	"go-gin-library/pkg/utils"
)

// BookCache serves book listings; implementations must fall back to load.
type BookCache interface {
	CatalogInvalidator
	Books(ctx context.Context, key string, load func(context.Context) ([]domain.Book, error)) ([]domain.Book, error)
}

type Catalog struct {
	books domain.BookRepository
	cache BookCache
	log   *zap.Logger
}

func NewCatalog(books domain.BookRepository, cache BookCache, l *zap.Logger) *Catalog {
	if l == nil {
		l = zap.NewNop()
	}
	return &Catalog{books: books, cache: cache, log: l}
}

type BookInput struct {
	ISBN          string
	Title         string
	Author        string
	PublishedYear int
	Quantity      int
}

func (s *Catalog) Add(ctx context.Context, in BookInput) (*domain.Book, error) {
	b := &domain.Book{
		ID:            utils.NewID(),
		ISBN:          strings.TrimSpace(in.ISBN),
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		PublishedYear: in.PublishedYear,
		Quantity:      in.Quantity,
	}
	if b.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if b.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
	}
	if b.PublishedYear < 0 {
		return nil, fmt.Errorf("%w: publishedYear must not be negative", domain.ErrValidation)
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	s.invalidate(ctx)
	return b, nil
}

// Update applies a partial edit. A quantity in the patch is an explicit
// restock: it overwrites the available count without looking at outstanding
// borrow records.
func (s *Catalog) Update(ctx context.Context, id string, p domain.BookPatch) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
		}
		p.Title = &t
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
	}
	if p.PublishedYear != nil && *p.PublishedYear < 0 {
		return fmt.Errorf("%w: publishedYear must not be negative", domain.ErrValidation)
	}
	ok, err := s.books.Update(ctx, id, p)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if !ok {
		return domain.ErrBookNotFound
	}
	if p.Quantity != nil {
		s.log.Info("book restocked", zap.String("bookId", id), zap.Int("quantity", *p.Quantity))
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes the book. Borrow records pointing at it are kept.
func (s *Catalog) Delete(ctx context.Context, id string) error {
	ok, err := s.books.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if !ok {
		return domain.ErrBookNotFound
	}
	s.invalidate(ctx)
	return nil
}

func (s *Catalog) Get(ctx context.Context, id string) (*domain.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if b == nil {
		return nil, domain.ErrBookNotFound
	}
	return b, nil
}

func (s *Catalog) List(ctx context.Context) ([]domain.Book, error) {
	return s.cached(ctx, "all", s.books.List)
}

// Search matches term against title, author and ISBN, ignoring case.
// An empty term lists everything.
func (s *Catalog) Search(ctx context.Context, term string) ([]domain.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	return s.cached(ctx, "search:"+strings.ToLower(term), func(ctx context.Context) ([]domain.Book, error) {
		return s.books.Search(ctx, term)
	})
}

func (s *Catalog) cached(ctx context.Context, key string, load func(context.Context) ([]domain.Book, error)) ([]domain.Book, error) {
	var (
		books []domain.Book
		err   error
	)
	if s.cache != nil {
		books, err = s.cache.Books(ctx, key, load)
	} else {
		books, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

func (s *Catalog) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
