package rest

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"
)

const validToken = "good-access-token"

var testUser = &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}

// fakeSessions answers the gate from validToken and delegates the rest to
// the optional func fields.
type fakeSessions struct {
	authErr error

	register      func(name, email, password string) (*services.Session, error)
	login         func(email, password string) (*services.Session, error)
	refreshAccess func(token string) (string, error)
	logout        func(token string) error
	logoutAll     func(userID string) error
}

func (f *fakeSessions) Authenticate(_ context.Context, token string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if token != validToken {
		return nil, common.ErrInvalidToken
	}
	return testUser, nil
}

func (f *fakeSessions) Register(_ context.Context, name, email, password string) (*services.Session, error) {
	return f.register(name, email, password)
}

func (f *fakeSessions) Login(_ context.Context, email, password string) (*services.Session, error) {
	return f.login(email, password)
}

func (f *fakeSessions) RefreshAccess(_ context.Context, token string) (string, error) {
	return f.refreshAccess(token)
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	return f.logout(token)
}

func (f *fakeSessions) LogoutAll(_ context.Context, userID string) error {
	return f.logoutAll(userID)
}

type fakeCatalog struct {
	listAvailable func() ([]models.Book, error)
	search        func(q services.SearchQuery) ([]models.Book, error)
	borrow        func(userID, bookID string) (*models.BorrowRecord, error)
	ret           func(userID, bookID string) error
	listBorrowed  func(userID string) ([]models.BorrowedBook, error)
}

func (f *fakeCatalog) ListAvailable(context.Context) ([]models.Book, error) {
	return f.listAvailable()
}

func (f *fakeCatalog) Search(_ context.Context, q services.SearchQuery) ([]models.Book, error) {
	return f.search(q)
}

func (f *fakeCatalog) Borrow(_ context.Context, userID, bookID string) (*models.BorrowRecord, error) {
	return f.borrow(userID, bookID)
}

func (f *fakeCatalog) Return(_ context.Context, userID, bookID string) error {
	return f.ret(userID, bookID)
}

func (f *fakeCatalog) ListBorrowed(_ context.Context, userID string) ([]models.BorrowedBook, error) {
	return f.listBorrowed(userID)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("boom")
