// Package models defines server-side data models persisted by the
// repositories.
package models

import "time"

// TokenEntry is one allowlisted refresh token.
type TokenEntry struct {
	Token     string
	CreatedAt time.Time
}

// User is the credential record. Tokens is the refresh-token allowlist,
// ordered by issuance.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Tokens       []TokenEntry
	CreatedAt    time.Time
}

// HasRefreshToken reports whether token is in the allowlist.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}
