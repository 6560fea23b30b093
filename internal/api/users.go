package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/promoraffle/promoraffle/internal/auth"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

// UsersHandler handles back-office account management (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func userID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		domainError(w, "list users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Role == "" {
		badRequest(w, "username, password, and role required")
		return
	}
	if !model.ValidRole(req.Role) {
		badRequest(w, "invalid role")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		badRequest(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		domainError(w, "create user", err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		domainError(w, "create user", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user created", "user", claims.Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		domainError(w, "get user", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		badRequest(w, "invalid role")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		domainError(w, "update user", err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if user.Role == model.RoleAdmin && req.Role != model.RoleAdmin {
		if ok := h.otherAdminsExist(w, r); !ok {
			return
		}
	}

	if err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role); err != nil {
		domainError(w, "update user", err)
		return
	}
	user.Role = req.Role

	claims := GetClaims(r.Context())
	slog.Info("user role updated", "user", claims.Username, "target_user", user.Username, "new_role", req.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Password == "" {
		badRequest(w, "password required")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		badRequest(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		domainError(w, "reset password", err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		domainError(w, "reset password", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user password reset", "user", claims.Username, "target_user", h.targetName(r, id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		badRequest(w, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		domainError(w, "delete user", err)
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Role == model.RoleAdmin {
		if ok := h.otherAdminsExist(w, r); !ok {
			return
		}
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		domainError(w, "delete user", err)
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// otherAdminsExist writes a 400 and returns false when demoting or deleting
// an admin would leave none.
func (h *UsersHandler) otherAdminsExist(w http.ResponseWriter, r *http.Request) bool {
	admins, err := store.CountAdmins(r.Context(), h.DB)
	if err != nil {
		domainError(w, "count admins", err)
		return false
	}
	if admins <= 1 {
		badRequest(w, "cannot remove the last admin")
		return false
	}
	return true
}

func (h *UsersHandler) targetName(r *http.Request, id int64) string {
	if u, _ := store.GetUser(r.Context(), h.DB, id); u != nil {
		return u.Username
	}
	return fmt.Sprintf("id:%d", id)
}
