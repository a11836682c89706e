// Package books persists the catalog and the borrow records.
package books

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
)

type Repository interface {
	ListAvailable(ctx context.Context) ([]models.Book, error)
	// Search matches title and author case-insensitively as literal
	// substrings. Empty arguments are ignored.
	Search(ctx context.Context, title, author string) ([]models.Book, error)

	// Borrow flips the book from available to unavailable and records the
	// loan. It returns common.ErrBookUnavailable when the book does not
	// exist or is already out; the book is left available if the record
	// cannot be written.
	Borrow(ctx context.Context, userID, bookID string, at time.Time) (*models.BorrowRecord, error)
	// Return deletes the user's record for the book and makes the book
	// available again. It returns common.ErrBorrowNotFound when there is no
	// such record and common.ErrorNotFound when the book itself is gone.
	Return(ctx context.Context, userID, bookID string) error
	ListBorrowed(ctx context.Context, userID string) ([]models.BorrowedBook, error)

	// Import adds books whose ExternalID is not yet present and reports how
	// many were inserted.
	Import(ctx context.Context, books []models.Book) (int, error)
}
