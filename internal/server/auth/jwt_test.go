package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func newTestCodec() *Codec {
	return NewCodec(Settings{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessValidity:  15 * time.Minute,
		RefreshValidity: 7 * 24 * time.Hour,
	})
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	ids := []Identity{
		{ID: "665f1c2ab1e8b001c8b4c880", Email: "a@x.com"},
		{ID: "3f0e6a8e-4f43-4c4a-9d55-10b4f6a3a2b1", Email: ""},
		{ID: "u", Email: "ünïcode@example.org"},
	}

	for _, d := range []Domain{AccessDomain, RefreshDomain} {
		for _, id := range ids {
			var (
				tok string
				err error
			)
			if d == AccessDomain {
				tok, err = c.IssueAccess(id)
			} else {
				tok, err = c.IssueRefresh(id)
			}
			if err != nil {
				t.Fatalf("issue %s: %v", d, err)
			}

			got, err := c.Verify(tok, d)
			if err != nil {
				t.Fatalf("verify %s: %v", d, err)
			}
			if got != id {
				t.Fatalf("identity mismatch: got %+v want %+v", got, id)
			}
		}
	}
}

func TestIssue_Lifetimes(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestCodec().WithClock(func() time.Time { return fixed })

	check := func(tok string, want time.Duration) {
		t.Helper()
		claims := &Claims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != want {
			t.Fatalf("lifetime: got %v want %v", got, want)
		}
		if claims.ID == "" {
			t.Fatal("jti must be set")
		}
	}

	access, _ := c.IssueAccess(Identity{ID: "u1", Email: "e"})
	refresh, _ := c.IssueRefresh(Identity{ID: "u1", Email: "e"})

	check(access, 15*time.Minute)
	check(refresh, 7*24*time.Hour)
}

func TestIssue_UniqueWithinSameInstant(t *testing.T) {
	t.Parallel()

	fixed := time.Now()
	c := newTestCodec().WithClock(func() time.Time { return fixed })

	a, _ := c.IssueRefresh(Identity{ID: "u1", Email: "e"})
	b, _ := c.IssueRefresh(Identity{ID: "u1", Email: "e"})
	if a == b {
		t.Fatal("two refresh tokens issued at the same instant must differ")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-8 * 24 * time.Hour)
	old := newTestCodec().WithClock(func() time.Time { return past })

	tok, err := old.IssueRefresh(Identity{ID: "u1", Email: "e"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = newTestCodec().Verify(tok, RefreshDomain)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_DomainsAreIndependent(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	access, _ := c.IssueAccess(Identity{ID: "u1", Email: "e"})
	refresh, _ := c.IssueRefresh(Identity{ID: "u1", Email: "e"})

	if _, err := c.Verify(access, RefreshDomain); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := c.Verify(refresh, AccessDomain); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestVerify_WrongSecretExpiredIsInvalid(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	other := NewCodec(Settings{
		AccessSecret:    "other",
		RefreshSecret:   "other-refresh",
		AccessValidity:  time.Minute,
		RefreshValidity: time.Minute,
	}).WithClock(func() time.Time { return past })

	tok, _ := other.IssueRefresh(Identity{ID: "u1", Email: "e"})

	if _, err := newTestCodec().Verify(tok, RefreshDomain); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	good, _ := c.IssueAccess(Identity{ID: "u1", Email: "e"})

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"})
	noneTok, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noID := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noIDTok, _ := noID.SignedString([]byte("access-secret"))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"})
	noExpTok, _ := noExp.SignedString([]byte("access-secret"))

	for name, tok := range map[string]string{
		"empty":      "",
		"malformed":  "not.a.jwt",
		"tampered":   tampered,
		"alg none":   noneTok,
		"no user id": noIDTok,
		"no expiry":  noExpTok,
	} {
		if _, err := c.Verify(tok, AccessDomain); !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestDomain_String(t *testing.T) {
	if AccessDomain.String() != "access" || RefreshDomain.String() != "refresh" || Domain(9).String() != "unknown" {
		t.Fatal("unexpected domain names")
	}
}
