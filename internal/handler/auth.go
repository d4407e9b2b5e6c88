package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/solarcycle/internal/auth"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/service"
)

// AuthService is the slice of service.AuthService the handler needs.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	TokenTTL() time.Duration
}

var _ AuthService = (*service.AuthService)(nil)

// AuthHandler manages registration, login and the session cookie.
//
//   - HandleRegister → create the account, send the welcome email, log in
//   - HandleLogin    → check credentials, issue the JWT cookie
//   - HandleLogout   → clear the JWT cookie
//   - HandleMe       → return the currently logged-in user's profile
type AuthHandler struct {
	auth          AuthService
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookies should be true when
// the server is reached over HTTPS.
func NewAuthHandler(authSvc AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          authSvc,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User        *model.User `json:"user"`
	WelcomeSent *bool       `json:"welcomeSent,omitempty"`
}

// HandleRegister creates an account and logs the new user in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "alice", "email": "alice@example.com", "password": "s3cret!"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("register failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.auth.TokenTTL(), h.secureCookies)
	writeJSON(w, http.StatusCreated, authResponse{User: res.User, WelcomeSent: &res.WelcomeSent})
}

// HandleLogin checks the credentials and sets the session cookie.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"username": "alice", "password": "s3cret!"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.auth.TokenTTL(), h.secureCookies)
	writeJSON(w, http.StatusOK, authResponse{User: res.User})
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /api/auth/logout
//
// Sessions are stateless, so the token stays valid until it expires; without
// the cookie the browser simply stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
