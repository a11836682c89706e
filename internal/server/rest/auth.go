package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"
)

type publicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionData struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         publicUser `json:"user"`
}

type accessTokenData struct {
	AccessToken string `json:"accessToken"`
}

func toSessionData(s *services.Session) sessionData {
	return sessionData{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         publicUser{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email},
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		if !h.validationError(w, err) {
			h.internalError(w, r, "Registration failed", err)
		}
		return
	}

	s, err := h.sessions.Register(r.Context(), req.Name, req.Email, req.Password)
	recordSession("register", err)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Registration failed", err.Error())
			return
		}
		if errors.Is(err, common.ErrPasswordTooLong) {
			writeError(w, http.StatusBadRequest, "Validation error", fieldMessages["Password.maxbytes"])
			return
		}
		h.internalError(w, r, "Registration failed", err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully", toSessionData(s))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		if !h.validationError(w, err) {
			h.internalError(w, r, "Login failed", err)
		}
		return
	}

	s, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	recordSession("login", err)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		h.internalError(w, r, "Login failed", err)
		return
	}

	writeSuccess(w, http.StatusOK, "User logged in successfully", toSessionData(s))
}

func (h *Handler) accessToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.validationError(w, err)
		return
	}

	token, err := h.sessions.RefreshAccess(r.Context(), req.RefreshToken)
	recordSession("refresh", err)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, "Token refreshed successfully", accessTokenData{AccessToken: token})
	case errors.Is(err, common.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "Refresh Token is required", "")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusForbidden, "Refresh Token has expired", err.Error())
	case errors.Is(err, common.ErrInvalidRefreshToken):
		writeError(w, http.StatusForbidden, "Invalid Refresh Token", "")
	default:
		h.internalError(w, r, "Token refresh failed", err)
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.validationError(w, err)
		return
	}

	err := h.sessions.Logout(r.Context(), req.RefreshToken)
	recordSession("logout", err)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, "User logged out successfully", nil)
	case errors.Is(err, common.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "Refresh Token is required", "")
	case errors.Is(err, common.ErrInvalidRefreshToken):
		writeError(w, http.StatusForbidden, "Invalid Refresh Token", "")
	default:
		h.internalError(w, r, "Logout failed", err)
	}
}

func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.LogoutAll(r.Context(), caller(r).ID)
	recordSession("logout_all", err)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, "User logged out from all devices successfully", nil)
	case errors.Is(err, common.ErrNoRefreshTokens):
		writeError(w, http.StatusForbidden, "No refresh tokens found", "")
	default:
		h.internalError(w, r, "Logout failed", err)
	}
}
