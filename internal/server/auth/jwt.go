// Package auth implements the token codec: HS256-signed JWTs carrying the
// caller identity, issued in two independent domains (access and refresh)
// with their own secrets and lifetimes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Domain selects the secret and lifetime a token is issued or verified with.
type Domain int

const (
	AccessDomain Domain = iota
	RefreshDomain
)

func (d Domain) String() string {
	switch d {
	case AccessDomain:
		return "access"
	case RefreshDomain:
		return "refresh"
	default:
		return "unknown"
	}
}

// Identity is the claim embedded in every token.
type Identity struct {
	ID    string
	Email string
}

// Claims combines the registered claims with the identity. Every token gets
// a random ID (jti), so two tokens issued in the same second still differ.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

type domainKey struct {
	secret   []byte
	validity time.Duration
}

// Codec issues and verifies tokens for both domains.
type Codec struct {
	access  domainKey
	refresh domainKey
	now     func() time.Time
}

// Settings carries what the codec needs from the server configuration.
type Settings struct {
	AccessSecret    string
	RefreshSecret   string
	AccessValidity  time.Duration
	RefreshValidity time.Duration
}

func NewCodec(s Settings) *Codec {
	return &Codec{
		access:  domainKey{secret: []byte(s.AccessSecret), validity: s.AccessValidity},
		refresh: domainKey{secret: []byte(s.RefreshSecret), validity: s.RefreshValidity},
		now:     time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) key(d Domain) domainKey {
	if d == RefreshDomain {
		return c.refresh
	}
	return c.access
}

func (c *Codec) IssueAccess(id Identity) (string, error) {
	return c.issue(id, AccessDomain)
}

func (c *Codec) IssueRefresh(id Identity) (string, error) {
	return c.issue(id, RefreshDomain)
}

func (c *Codec) issue(id Identity, d Domain) (string, error) {
	k := c.key(d)
	now := c.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.validity)),
		},
		UserID: id.ID,
		Email:  id.Email,
	})

	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", d, err)
	}
	return signed, nil
}

// Verify checks signature and expiry in the given domain. It returns
// common.ErrTokenExpired for an expired but otherwise well-formed token and
// common.ErrInvalidToken for everything else.
func (c *Codec) Verify(tokenString string, d Domain) (Identity, error) {
	k := c.key(d)
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{ID: claims.UserID, Email: claims.Email}, nil
}
