package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"
)

// SessionService is the session lifecycle used by the auth endpoints and
// the gate. *services.SessionManager implements it.
type SessionService interface {
	Authenticator
	Register(ctx context.Context, name, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
}

// CatalogService backs the books endpoints. *services.CatalogService
// implements it.
type CatalogService interface {
	ListAvailable(ctx context.Context) ([]models.Book, error)
	Search(ctx context.Context, q services.SearchQuery) ([]models.Book, error)
	Borrow(ctx context.Context, userID, bookID string) (*models.BorrowRecord, error)
	Return(ctx context.Context, userID, bookID string) error
	ListBorrowed(ctx context.Context, userID string) ([]models.BorrowedBook, error)
}

type Handler struct {
	sessions SessionService
	catalog  CatalogService
	storage  Pinger
	logger   logging.Logger
}

func NewHandler(s SessionService, c CatalogService, storage Pinger, l logging.Logger) *Handler {
	return &Handler{sessions: s, catalog: c, storage: storage, logger: l.With("module", "rest")}
}

// internalError logs err and answers 500 with message. The driver error
// text stays in the log.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.Error(r.Context(), message, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, message, common.ErrorInternal.Error())
}

func (h *Handler) validationError(w http.ResponseWriter, err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "Validation error", ve.Error())
		return true
	}
	return false
}

// caller returns the user attached by the gate. Routes using it are always
// mounted behind Authenticate.
func caller(r *http.Request) *models.User {
	u, _ := UserFromContext(r.Context())
	return u
}
