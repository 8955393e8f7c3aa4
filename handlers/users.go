// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/metrics"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/revocation"
)

type UserHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	tokens  *auth.TokenIssuer
	revoked revocation.Store
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config, tokens *auth.TokenIssuer, revoked revocation.Store) *UserHandler {
	return &UserHandler{db: db, cfg: cfg, tokens: tokens, revoked: revoked}
}

// normalizeEmail trims and lowercases an email address for storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup handles POST /api/v1/users/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignupRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	// Check if the email is already registered
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		slog.Error("failed to check existing user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusBadRequest, "User already exists.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	userID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate user ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	now := time.Now().UTC()
	result, err := h.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
	`, userID, req.FirstName, req.LastName, email, hash, req.Phone, req.Address, now, now)
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	// Lost a race with a concurrent signup for the same email
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "User already exists.")
		return
	}

	metrics.UsersRegistered.WithLabelValues(models.RoleUser).Inc()
	slog.Info("user registered", "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.SignupResponse{
		Success: true,
		Message: "User registered successfully.",
		Data:    models.AccountRef{ID: userID, Email: email},
	})
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := findUser(r.Context(), h.db, "email = $1", normalizeEmail(req.Email))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		slog.Warn("failed login attempt", "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, _, err := h.tokens.Issue(user.ID, models.RoleUser)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// Logout handles POST /api/v1/users/logout
// The presented token stays revoked until it would have expired anyway
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if ttl > 0 {
		if err := h.revoked.Revoke(r.Context(), claims.ID, ttl); err != nil {
			slog.Error("failed to revoke token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log out")
			return
		}
	}

	slog.Info("user logged out", "user_id", claims.Subject)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// GetProfile handles GET /api/v1/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := findUser(r.Context(), h.db, "id = $1", middleware.GetUserID(r.Context()))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/v1/users/profile
// Only the fields present in the body change
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := findUser(r.Context(), h.db, "id = $1", middleware.GetUserID(r.Context()))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if user.FirstName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "first_name cannot be empty")
		return
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, address = $4, updated_at = $5
		WHERE id = $6
	`, user.FirstName, user.LastName, user.Phone, user.Address, user.UpdatedAt, user.ID)
	if err != nil {
		slog.Error("failed to update user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	slog.Info("profile updated", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, user)
}

// findUser loads one user matching the given condition
func findUser(ctx context.Context, db *sql.DB, where string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, password_hash, phone, address, created_at, updated_at
		FROM users
		WHERE `+where, args...).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
