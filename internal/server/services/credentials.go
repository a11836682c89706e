// Package services contains server-side business logic: the credential
// store, the session manager built on top of it, and the book catalog.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore owns user records: password hashing and the per-user
// refresh-token allowlist. Raw passwords never leave this type.
type CredentialStore struct {
	repo users.Repository
	cost int
	now  func() time.Time
}

func NewCredentialStore(repo users.Repository, bcryptCost int) *CredentialStore {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialStore{repo: repo, cost: bcryptCost, now: time.Now}
}

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// Create hashes password and stores a new user. It returns
// common.ErrDuplicateEmail when email is taken and common.ErrPasswordTooLong
// when password is over bcrypt's byte limit.
func (s *CredentialStore) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, common.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Tokens:       []models.TokenEntry{},
	})
}

func (s *CredentialStore) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *CredentialStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.repo.FindByRefreshToken(ctx, token)
}

// AppendRefreshToken allowlists token for userID unless it is already there.
func (s *CredentialStore) AppendRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	return s.repo.AppendRefreshToken(ctx, userID, models.TokenEntry{Token: token, CreatedAt: s.now().UTC()})
}

func (s *CredentialStore) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	return s.repo.RemoveRefreshToken(ctx, userID, token)
}

func (s *CredentialStore) ClearRefreshTokens(ctx context.Context, userID string) error {
	return s.repo.ClearRefreshTokens(ctx, userID)
}
