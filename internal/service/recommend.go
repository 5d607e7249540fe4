package service

import (
	"context"
	"fmt"
	"strings"

	"go-gin-library/internal/domain"
)

const recommendLimit = 5

type Recommendation struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Recommender suggests available books by the same author.
type Recommender struct {
	books domain.BookRepository
	cache BookCache
}

func NewRecommender(books domain.BookRepository, cache BookCache) *Recommender {
	return &Recommender{books: books, cache: cache}
}

func (s *Recommender) ByAuthor(ctx context.Context, author string) ([]Recommendation, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", domain.ErrValidation)
	}
	load := func(ctx context.Context) ([]domain.Book, error) {
		return s.books.AvailableByAuthor(ctx, author, recommendLimit)
	}
	var (
		books []domain.Book
		err   error
	)
	if s.cache != nil {
		books, err = s.cache.Books(ctx, "author:"+author, load)
	} else {
		books, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	out := make([]Recommendation, 0, len(books))
	for _, b := range books {
		out = append(out, Recommendation{ID: b.ID, Title: b.Title, Author: b.Author})
	}
	return out, nil
}
