package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/dbx"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	// ids are uuids; anything else cannot match a row
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, name, email, password_hash, created_at FROM users
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, created_at FROM users
		 WHERE email = $1
		 `
	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.password_hash, u.created_at FROM users u
		 JOIN refresh_tokens t ON t.user_id = u.id
		 WHERE t.token = $1
		 `
	return r.findOne(ctx, query, token)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	tokens, err := r.tokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens

	return user, nil
}

func (r *PostgresRepository) tokens(ctx context.Context, userID string) ([]models.TokenEntry, error) {
	query :=
		`SELECT token, created_at FROM refresh_tokens
		 WHERE user_id = $1
		 ORDER BY created_at, token
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TokenEntry, 0)
	for rows.Next() {
		var (
			token     string
			createdAt time.Time
		)
		if err := rows.Scan(&token, &createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, models.TokenEntry{Token: token, CreatedAt: createdAt})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) AppendRefreshToken(ctx context.Context, userID string, entry models.TokenEntry) (bool, error) {
	query :=
		`INSERT INTO refresh_tokens (token, user_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, entry.Token, userID, entry.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n == 1, nil
}

func (r *PostgresRepository) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	query :=
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1 AND token = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ClearRefreshTokens(ctx context.Context, userID string) error {
	query :=
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
