package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/books"
)

// CatalogService lists and searches books and tracks who borrowed what.
type CatalogService struct {
	repo   books.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewCatalogService(repo books.Repository, logger logging.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger.With("module", "catalog"), now: time.Now}
}

func (s *CatalogService) ListAvailable(ctx context.Context) ([]models.Book, error) {
	return s.repo.ListAvailable(ctx)
}

// SearchQuery carries the search terms. A nil term was not supplied.
type SearchQuery struct {
	Title  *string
	Author *string
}

func term(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Search matches the non-blank terms. Supplying both terms blank is
// rejected; supplying neither lists the whole catalog.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) ([]models.Book, error) {
	title, author := term(q.Title), term(q.Author)
	if q.Title != nil && q.Author != nil && title == "" && author == "" {
		return nil, common.ErrSearchTermRequired
	}
	return s.repo.Search(ctx, title, author)
}

func (s *CatalogService) Borrow(ctx context.Context, userID, bookID string) (*models.BorrowRecord, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, common.ErrBookIDRequired
	}

	rec, err := s.repo.Borrow(ctx, userID, bookID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "book borrowed", "user_id", userID, "book_id", bookID)
	return rec, nil
}

func (s *CatalogService) Return(ctx context.Context, userID, bookID string) error {
	if err := s.repo.Return(ctx, userID, strings.TrimSpace(bookID)); err != nil {
		return err
	}

	s.logger.Info(ctx, "book returned", "user_id", userID, "book_id", bookID)
	return nil
}

func (s *CatalogService) ListBorrowed(ctx context.Context, userID string) ([]models.BorrowedBook, error) {
	return s.repo.ListBorrowed(ctx, userID)
}

// Import loads books into the catalog, skipping ones already present.
func (s *CatalogService) Import(ctx context.Context, list []models.Book) (int, error) {
	n, err := s.repo.Import(ctx, list)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "catalog import finished", "received", len(list), "inserted", n)
	return n, nil
}
