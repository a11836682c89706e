package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/dbx"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookColumns = `id, COALESCE(external_id, ''), title, author, availability`

func (r *PostgresRepository) ListAvailable(ctx context.Context) ([]models.Book, error) {
	query :=
		`SELECT ` + bookColumns + ` FROM books
		 WHERE availability
		 ORDER BY title
		 `
	return r.queryBooks(ctx, query)
}

// likePattern escapes ILIKE metacharacters so s matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (r *PostgresRepository) Search(ctx context.Context, title, author string) ([]models.Book, error) {
	var (
		conds []string
		args  []any
	)
	if title != "" {
		args = append(args, likePattern(title))
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if author != "" {
		args = append(args, likePattern(author))
		conds = append(conds, fmt.Sprintf("author ILIKE $%d", len(args)))
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY title`

	return r.queryBooks(ctx, query, args...)
}

func (r *PostgresRepository) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Book, 0)
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.ExternalID, &b.Title, &b.Author, &b.Availability); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Borrow(ctx context.Context, userID, bookID string, at time.Time) (*models.BorrowRecord, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return nil, common.ErrBookUnavailable
	}

	rec := &models.BorrowRecord{UserID: userID, BookID: bookID, BorrowDate: at}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`UPDATE books SET availability = FALSE
			 WHERE id = $1 AND availability
			 RETURNING id
			 `
		var id string
		if err := tx.QueryRowContext(ctx, query, bookID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrBookUnavailable
			}
			return fmt.Errorf("db error: %w", err)
		}

		query =
			`INSERT INTO borrowed_books (user_id, book_id, borrow_date)
			 VALUES ($1, $2, $3)
			 RETURNING id
			 `
		if err := tx.QueryRowContext(ctx, query, userID, bookID, at).Scan(&rec.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (r *PostgresRepository) Return(ctx context.Context, userID, bookID string) error {
	if _, err := uuid.Parse(bookID); err != nil {
		return common.ErrBorrowNotFound
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`DELETE FROM borrowed_books
			 WHERE id = (
			   SELECT id FROM borrowed_books
			   WHERE user_id = $1 AND book_id = $2
			   ORDER BY borrow_date
			   LIMIT 1
			 )
			 RETURNING id
			 `
		var id string
		if err := tx.QueryRowContext(ctx, query, userID, bookID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrBorrowNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		query =
			`UPDATE books SET availability = TRUE
			 WHERE id = $1
			 `
		res, err := tx.ExecContext(ctx, query, bookID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return common.ErrorNotFound
		}
		return nil
	})
}

func (r *PostgresRepository) ListBorrowed(ctx context.Context, userID string) ([]models.BorrowedBook, error) {
	query :=
		`SELECT r.id, r.user_id, r.borrow_date,
		        b.id, COALESCE(b.external_id, ''), b.title, b.author, b.availability
		 FROM borrowed_books r
		 JOIN books b ON b.id = r.book_id
		 WHERE r.user_id = $1
		 ORDER BY r.borrow_date
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.BorrowedBook, 0)
	for rows.Next() {
		var (
			rec  models.BorrowedBook
			book models.Book
		)
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.BorrowDate,
			&book.ID, &book.ExternalID, &book.Title, &book.Author, &book.Availability)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Book = &book
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Import(ctx context.Context, books []models.Book) (int, error) {
	inserted := 0

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO books (external_id, title, author, availability)
			 VALUES (NULLIF($1, ''), $2, $3, $4)
			 ON CONFLICT (external_id) DO NOTHING
			 `
		for _, b := range books {
			res, err := tx.ExecContext(ctx, query, b.ExternalID, b.Title, b.Author, b.Availability)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
