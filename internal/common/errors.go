// Package common defines shared constants and sentinel errors used across
// the library server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")

	// Token codec errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session errors.
	ErrMissingToken        = errors.New("refresh token is required")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNoRefreshTokens     = errors.New("no refresh tokens found")

	// Request authentication errors.
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUserGone        = errors.New("user no longer exists")

	// Catalog errors.
	ErrBookIDRequired     = errors.New("book id is required")
	ErrBookUnavailable    = errors.New("book is not available")
	ErrBorrowNotFound     = errors.New("borrow record not found")
	ErrSearchTermRequired = errors.New("search term is required")
)
