package handlers

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/models"
)

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Accounts AccountService
	Limiter  RateLimiter

	// TrustProxyHeaders keys the limiter by forwarded client addresses.
	TrustProxyHeaders bool
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Secret    string `json:"secret"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type signUpResponse struct {
	User    models.User     `json:"user"`
	Session sessionResponse `json:"session"`
}

type loginResponse struct {
	Session sessionResponse `json:"session"`
}

func newSessionResponse(s models.Session) sessionResponse {
	resp := sessionResponse{ID: s.ID, UserID: s.UserID, Secret: s.Secret}
	if !s.ExpiresAt.IsZero() {
		resp.ExpiresAt = s.ExpiresAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return resp
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signup", h.TrustProxyHeaders) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	user, session, err := h.Accounts.CreateUser(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logger.Info("user registered", "userId", user.ID, "accountId", user.AccountID)
	respondJSON(ctx, w, http.StatusCreated, signUpResponse{User: user, Session: newSessionResponse(session)})
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login", h.TrustProxyHeaders) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	session, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, loginResponse{Session: newSessionResponse(session)})
}

// Logout handles POST /api/v1/auth/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	if err := h.Accounts.SignOut(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	Accounts AccountService
}

// Me handles GET /api/v1/users/me requests.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	user, err := h.Accounts.GetCurrentUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}
