package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*CatalogService, *memBooks) {
	t.Helper()
	repo := newMemBooks(
		models.Book{ID: "b-emma", Title: "Emma", Author: "Jane Austen", Availability: true},
		models.Book{ID: "b-dune", Title: "Dune", Author: "Frank Herbert", Availability: true},
		models.Book{ID: "b-out", Title: "Persuasion", Author: "Jane Austen", Availability: false},
	)
	return NewCatalogService(repo, logging.Discard()), repo
}

func TestCatalog_ListAvailable(t *testing.T) {
	s, _ := newCatalog(t)

	got, err := s.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, b := range got {
		assert.True(t, b.Availability)
	}
}

func str(v string) *string { return &v }

func TestCatalog_Search(t *testing.T) {
	s, _ := newCatalog(t)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchQuery{Title: str(""), Author: str("  ")})
	assert.ErrorIs(t, err, common.ErrSearchTermRequired)

	got, err := s.Search(ctx, SearchQuery{Title: str(""), Author: str("austen")})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Search(ctx, SearchQuery{Title: str("EMMA"), Author: str("austen")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b-emma", got[0].ID)
}

func TestCatalog_SearchWithoutTermsListsCatalog(t *testing.T) {
	s, _ := newCatalog(t)
	ctx := context.Background()

	for name, q := range map[string]SearchQuery{
		"none supplied":      {},
		"only title, blank":  {Title: str("")},
		"only author, blank": {Author: str(" ")},
	} {
		got, err := s.Search(ctx, q)
		require.NoError(t, err, name)
		assert.Len(t, got, 3, name)
	}
}

func TestCatalog_BorrowAndReturn(t *testing.T) {
	s, repo := newCatalog(t)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
	ctx := context.Background()

	rec, err := s.Borrow(ctx, "u1", " b-emma ")
	require.NoError(t, err)
	assert.Equal(t, "b-emma", rec.BookID)
	assert.Equal(t, at, repo.lastAt)

	_, err = s.Borrow(ctx, "u2", "b-emma")
	assert.ErrorIs(t, err, common.ErrBookUnavailable)

	borrowed, err := s.ListBorrowed(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, "Emma", borrowed[0].Book.Title)

	err = s.Return(ctx, "u2", "b-emma")
	assert.ErrorIs(t, err, common.ErrBorrowNotFound)

	require.NoError(t, s.Return(ctx, "u1", "b-emma"))

	err = s.Return(ctx, "u1", "b-emma")
	assert.ErrorIs(t, err, common.ErrBorrowNotFound)

	avail, err := s.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, avail, 2)
}

func TestCatalog_BorrowValidation(t *testing.T) {
	s, _ := newCatalog(t)

	_, err := s.Borrow(context.Background(), "u1", "")
	assert.ErrorIs(t, err, common.ErrBookIDRequired)

	_, err = s.Borrow(context.Background(), "u1", "b-out")
	assert.ErrorIs(t, err, common.ErrBookUnavailable)

	_, err = s.Borrow(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, common.ErrBookUnavailable)
}

func TestCatalog_ReturnBookGone(t *testing.T) {
	s, repo := newCatalog(t)
	ctx := context.Background()

	_, err := s.Borrow(ctx, "u1", "b-dune")
	require.NoError(t, err)
	delete(repo.books, "b-dune")

	assert.ErrorIs(t, s.Return(ctx, "u1", "b-dune"), common.ErrorNotFound)
}

func TestCatalog_RepositoryErrorsPropagate(t *testing.T) {
	s, repo := newCatalog(t)
	repo.fail["ListAvailable"] = errBoom{}
	repo.fail["ListBorrowed"] = errBoom{}
	repo.fail["Borrow"] = errBoom{}

	_, err := s.ListAvailable(context.Background())
	assert.ErrorIs(t, err, errBoom{})
	_, err = s.ListBorrowed(context.Background(), "u1")
	assert.ErrorIs(t, err, errBoom{})
	_, err = s.Borrow(context.Background(), "u1", "b-emma")
	assert.ErrorIs(t, err, errBoom{})
}

func TestCatalog_Import(t *testing.T) {
	s, _ := newCatalog(t)
	list := []models.Book{
		{ExternalID: "/works/OL1W", Title: "Emma", Author: "Jane Austen", Availability: true},
		{ExternalID: "/works/OL2W", Title: "Dune", Author: "Frank Herbert", Availability: true},
	}

	n, err := s.Import(context.Background(), list)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Import(context.Background(), list)
	require.NoError(t, err)
	assert.Zero(t, n)
}
