// Package users persists credential records and their refresh-token
// allowlists. Lookups that find nothing return common.ErrorNotFound;
// creating a user whose email is taken returns common.ErrDuplicateEmail.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
)

type Repository interface {
	// Create stores user and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)

	// AppendRefreshToken adds entry to the user's allowlist unless a token
	// with the same value is already there. It reports whether the entry
	// was added.
	AppendRefreshToken(ctx context.Context, userID string, entry models.TokenEntry) (bool, error)
	// RemoveRefreshToken removes token from the user's allowlist. Removing
	// an absent token is not an error.
	RemoveRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshTokens(ctx context.Context, userID string) error
}
