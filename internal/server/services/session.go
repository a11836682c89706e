package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/server/auth"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
)

// TokenCodec issues and verifies signed tokens in the access and refresh
// domains. *auth.Codec implements it.
type TokenCodec interface {
	IssueAccess(id auth.Identity) (string, error)
	IssueRefresh(id auth.Identity) (string, error)
	Verify(token string, d auth.Domain) (auth.Identity, error)
}

// Session is what register and login hand back to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// SessionManager implements the token lifecycle. A refresh token is usable
// only while it verifies in the refresh domain and is present in its
// owner's allowlist.
type SessionManager struct {
	creds  *CredentialStore
	codec  TokenCodec
	logger logging.Logger
}

func NewSessionManager(creds *CredentialStore, codec TokenCodec, logger logging.Logger) *SessionManager {
	return &SessionManager{creds: creds, codec: codec, logger: logger.With("module", "session")}
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{ID: u.ID, Email: u.Email}
}

func (m *SessionManager) issuePair(u *models.User) (string, string, error) {
	access, err := m.codec.IssueAccess(identityOf(u))
	if err != nil {
		return "", "", err
	}
	refresh, err := m.codec.IssueRefresh(identityOf(u))
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Register creates the user and opens its first session.
func (m *SessionManager) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := m.creds.Create(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	access, refresh, err := m.issuePair(user)
	if err != nil {
		return nil, err
	}

	if _, err := m.creds.AppendRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Login opens a new session. An unknown email and a wrong password both
// yield common.ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := m.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !m.creds.VerifyPassword(user, password) {
		return nil, common.ErrInvalidCredentials
	}

	access, refresh, err := m.issuePair(user)
	if err != nil {
		return nil, err
	}

	if _, err := m.creds.AppendRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// RefreshAccess trades an allowlisted refresh token for a new access token.
// The refresh token itself is not rotated. An expired token is dropped from
// its owner's allowlist before common.ErrRefreshTokenExpired is returned.
func (m *SessionManager) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrMissingToken
	}

	id, err := m.codec.Verify(refreshToken, auth.RefreshDomain)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			m.dropExpired(ctx, refreshToken)
			return "", common.ErrRefreshTokenExpired
		}
		return "", common.ErrInvalidRefreshToken
	}

	user, err := m.allowlistedOwner(ctx, id, refreshToken)
	if err != nil {
		return "", err
	}

	return m.codec.IssueAccess(identityOf(user))
}

// dropExpired removes an expired token from whichever allowlist holds it.
// Failures are logged and otherwise ignored.
func (m *SessionManager) dropExpired(ctx context.Context, token string) {
	owner, err := m.creds.FindByRefreshToken(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			m.logger.Warn(ctx, "expired token lookup failed", "error", err)
		}
		return
	}
	if err := m.creds.RemoveRefreshToken(ctx, owner.ID, token); err != nil {
		m.logger.Warn(ctx, "expired token cleanup failed", "user_id", owner.ID, "error", err)
	}
}

// allowlistedOwner loads the user named by id and checks that token is in
// its allowlist.
func (m *SessionManager) allowlistedOwner(ctx context.Context, id auth.Identity, token string) (*models.User, error) {
	user, err := m.creds.FindByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.HasRefreshToken(token) {
		return nil, common.ErrInvalidRefreshToken
	}
	return user, nil
}

// Logout revokes a single refresh token. Unlike RefreshAccess, an expired
// token is rejected without touching the allowlist.
func (m *SessionManager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return common.ErrMissingToken
	}

	id, err := m.codec.Verify(refreshToken, auth.RefreshDomain)
	if err != nil {
		return common.ErrInvalidRefreshToken
	}

	user, err := m.allowlistedOwner(ctx, id, refreshToken)
	if err != nil {
		return err
	}

	if err := m.creds.RemoveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return err
	}

	m.logger.Info(ctx, "user logged out", "user_id", user.ID)
	return nil
}

// LogoutAll empties the caller's allowlist.
func (m *SessionManager) LogoutAll(ctx context.Context, userID string) error {
	user, err := m.creds.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNoRefreshTokens
		}
		return err
	}

	if len(user.Tokens) == 0 {
		return common.ErrNoRefreshTokens
	}

	if err := m.creds.ClearRefreshTokens(ctx, user.ID); err != nil {
		return err
	}

	m.logger.Info(ctx, "user logged out everywhere", "user_id", user.ID, "sessions", len(user.Tokens))
	return nil
}

// Authenticate resolves the user behind an access token.
func (m *SessionManager) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.ErrUnauthenticated
	}

	id, err := m.codec.Verify(accessToken, auth.AccessDomain)
	if err != nil {
		return nil, err
	}

	user, err := m.creds.FindByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserGone
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	return user, nil
}
