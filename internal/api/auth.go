package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/promoraffle/promoraffle/internal/auth"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

// AuthHandler handles back-office authentication endpoints.
type AuthHandler struct {
	DB     *sql.DB
	Tokens *auth.Tokens
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(w, "username and password required")
		return
	}

	user, err := store.GetActiveUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		domainError(w, "login", err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, claims, err := h.Tokens.Issue(user)
	if err != nil {
		domainError(w, "issuing token", err)
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, Role: user.Role})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		domainError(w, "logout", err)
		return
	}
	if n, err := store.PurgeExpiredTokens(r.Context(), h.DB, time.Now()); err != nil {
		slog.Warn("purging revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged revoked tokens", "count", n)
	}

	slog.Info("user logged out", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		badRequest(w, "current and new password required")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		domainError(w, "change password", err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		domainError(w, "change password", err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		domainError(w, "change password", err)
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
