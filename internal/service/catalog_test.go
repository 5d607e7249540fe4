package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-library/internal/core/cache"
	"go-gin-library/internal/domain"
	"go-gin-library/internal/repo"
	"go-gin-library/internal/repo/repotest"
)

func newCachedCatalog(t *testing.T) (*Catalog, *repo.Store, *cache.Catalog) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	bc := cache.NewCatalog(c, time.Minute, zap.NewNop())
	store := repotest.Store(t)
	return NewCatalog(store.Books(), bc, nil), store, bc
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestCatalog_AddValidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCachedCatalog(t)

	_, err := svc.Add(ctx, BookInput{Title: "  ", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Add(ctx, BookInput{Title: "Dune", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Add(ctx, BookInput{Title: "Dune", PublishedYear: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	b, err := svc.Add(ctx, BookInput{ISBN: " 978-0441013593 ", Title: " Dune ", Author: "Frank Herbert", PublishedYear: 1965, Quantity: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "978-0441013593", b.ISBN)
}

func TestCatalog_ListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newCachedCatalog(t)

	_, err := svc.Add(ctx, BookInput{Title: "Dune", Author: "Frank Herbert", Quantity: 1})
	require.NoError(t, err)
	books, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	// a write behind the service's back is not visible until invalidation
	require.NoError(t, store.Books().Create(ctx, &domain.Book{ID: "x", Title: "Hidden", Quantity: 1}))
	books, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, err = svc.Add(ctx, BookInput{Title: "Children of Dune", Author: "Frank Herbert", Quantity: 1})
	require.NoError(t, err)
	books, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestCatalog_LedgerInvalidatesCachedQuantity(t *testing.T) {
	ctx := context.Background()
	svc, store, bc := newCachedCatalog(t)
	b, err := svc.Add(ctx, BookInput{Title: "Dune", Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, &domain.User{ID: "u1", Email: "u1@x.io", Name: "u1", PasswordHash: "x", Role: domain.RoleUser}))

	books, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, books[0].Quantity)

	ledger := NewLedger(store, DefaultLedgerConfig(), bc, nil)
	_, err = ledger.Borrow(ctx, "u1", b.ID)
	require.NoError(t, err)

	books, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, books[0].Quantity)
}

func TestCatalog_UpdateAndRestock(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCachedCatalog(t)
	b, err := svc.Add(ctx, BookInput{Title: "Dune", Author: "Frank Herbert", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, b.ID, domain.BookPatch{Quantity: intp(7), Author: strp("F. Herbert")}))
	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, "F. Herbert", got.Author)
	assert.Equal(t, "Dune", got.Title)

	assert.ErrorIs(t, svc.Update(ctx, b.ID, domain.BookPatch{Quantity: intp(-1)}), domain.ErrValidation)
	assert.ErrorIs(t, svc.Update(ctx, b.ID, domain.BookPatch{Title: strp(" ")}), domain.ErrValidation)
	assert.ErrorIs(t, svc.Update(ctx, "missing", domain.BookPatch{Title: strp("x")}), domain.ErrBookNotFound)
	assert.ErrorIs(t, svc.Update(ctx, "", domain.BookPatch{}), domain.ErrValidation)
}

func TestCatalog_DeleteAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCachedCatalog(t)
	b, err := svc.Add(ctx, BookInput{Title: "Dune", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, b.ID), domain.ErrBookNotFound)

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestCatalog_Search(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalog(repotest.Store(t).Books(), nil, nil)
	for _, in := range []BookInput{
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "9780441478125", Quantity: 1},
		{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", ISBN: "9780547773742", Quantity: 1},
		{Title: "Neuromancer", Author: "William Gibson", ISBN: "9780441569595", Quantity: 1},
	} {
		_, err := svc.Add(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.Search(ctx, "le guin")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A Wizard of Earthsea", got[0].Title)

	got, err = svc.Search(ctx, "NEURO")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.Search(ctx, "0441")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.Search(ctx, "tolkien")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommender_ByAuthor(t *testing.T) {
	ctx := context.Background()
	store := repotest.Store(t)
	svc := NewCatalog(store.Books(), nil, nil)
	for i, qty := range []int{1, 0, 2, 1, 1, 1, 1} {
		_, err := svc.Add(ctx, BookInput{Title: string(rune('A' + i)), Author: "Octavia E. Butler", Quantity: qty})
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, BookInput{Title: "Other", Author: "Someone Else", Quantity: 1})
	require.NoError(t, err)

	rec := NewRecommender(store.Books(), nil)
	got, err := rec.ByAuthor(ctx, "Octavia E. Butler")
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, r := range got {
		assert.Equal(t, "Octavia E. Butler", r.Author)
		assert.NotEqual(t, "B", r.Title, "out of stock titles are skipped")
	}

	got, err = rec.ByAuthor(ctx, "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = rec.ByAuthor(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
