// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/metrics"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
)

// AdminSignupKeyHeader carries the shared key that gates admin signup
const AdminSignupKeyHeader = "X-Admin-Signup-Key"

type AdminHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	tokens *auth.TokenIssuer
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config, tokens *auth.TokenIssuer) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, tokens: tokens}
}

// Signup handles POST /api/admin/signup
func (h *AdminHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cfg.AdminSignupKey != "" && !middleware.MatchesKey(r.Header.Get(AdminSignupKeyHeader), h.cfg.AdminSignupKey) {
		slog.Warn("admin signup rejected - bad signup key", "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin signup key")
		return
	}

	var req models.SignupRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		slog.Error("failed to check existing admin", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Admin already exists.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register admin")
		return
	}

	adminID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate admin ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register admin")
		return
	}

	result, err := h.db.ExecContext(ctx, `
		INSERT INTO admins (id, first_name, last_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`, adminID, req.FirstName, req.LastName, email, hash, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert admin", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register admin")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Admin already exists.")
		return
	}

	metrics.UsersRegistered.WithLabelValues(models.RoleAdmin).Inc()
	slog.Info("admin registered", "admin_id", adminID)

	middleware.JSONResponse(w, http.StatusCreated, models.SignupResponse{
		Success: true,
		Message: "Admin registered successfully.",
		Data:    models.AccountRef{ID: adminID, Email: email},
	})
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	var admin models.Admin
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, first_name, last_name, email, password_hash, created_at
		FROM admins
		WHERE email = $1
	`, normalizeEmail(req.Email)).Scan(
		&admin.ID, &admin.FirstName, &admin.LastName, &admin.Email, &admin.PasswordHash, &admin.CreatedAt,
	)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		slog.Error("failed to query admin", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.CheckPassword(req.Password, admin.PasswordHash); err != nil {
		slog.Warn("failed admin login attempt", "admin_id", admin.ID)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, _, err := h.tokens.Issue(admin.ID, models.RoleAdmin)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("admin logged in", "admin_id", admin.ID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Success: true,
		Token:   token,
		Admin:   &admin,
	})
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, first_name, last_name, email, phone, address, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Address, &u.CreatedAt, &u.UpdatedAt); err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /api/admin/users/{id}
// The user's cart goes with it, their orders stay for the record
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user id is required")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		slog.Error("failed to delete user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Info("user deleted", "user_id", userID, "admin_id", middleware.GetUserID(r.Context()))

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "User deleted successfully",
	})
}

// ListOrders handles GET /api/admin/orders
// Optional ?status= narrows the list to one order status
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.IsValidOrderStatus(status) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	var (
		orders []models.Order
		err    error
	)
	if status == "" {
		orders, err = listOrders(r.Context(), h.db, "1 = 1")
	} else {
		orders, err = listOrders(r.Context(), h.db, "status = $1", status)
	}
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, orders)
}

// UpdateOrderStatus handles PUT /api/admin/orders/{id}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := r.PathValue("id")

	var req models.UpdateOrderStatusRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}
	if !models.IsValidOrderStatus(req.Status) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	var current string
	err := h.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		slog.Error("failed to query order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if models.IsTerminalOrderStatus(current) {
		middleware.ErrorResponse(w, http.StatusConflict, "Order is already "+current)
		return
	}

	// Guard on the status we read so a concurrent change is not overwritten
	result, err := h.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, req.Status, time.Now().UTC(), orderID, current)
	if err != nil {
		slog.Error("failed to update order status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Order was modified concurrently")
		return
	}

	slog.Info("order status updated", "order_id", orderID, "from", current, "to", req.Status)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Order status updated successfully",
	})
}

// UpdateFood handles PUT /api/admin/foods/{id}
// Empty strings and a zero price keep the stored value
func (h *AdminHandler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	foodID := r.PathValue("id")

	var req models.UpdateFoodRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	// A positive price below one paisa would round to zero
	price := roundMoney(req.Price)
	if req.Price > 0 && price <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "price is invalid")
		return
	}

	food, err := findFood(ctx, h.db, foodID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Food item not found")
		return
	}
	if err != nil {
		slog.Error("failed to query food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.Name != "" {
		food.Name = req.Name
	}
	if req.Description != "" {
		food.Description = req.Description
	}
	if price > 0 {
		food.Price = price
	}
	if req.Category != "" {
		food.Category = req.Category
	}
	if req.ImageURL != "" {
		food.ImageURL = req.ImageURL
	}
	if req.Available != nil {
		food.Available = *req.Available
	}
	food.UpdatedAt = time.Now().UTC()

	_, err = h.db.ExecContext(ctx, `
		UPDATE foods
		SET name = $1, description = $2, price = $3, category = $4, image_url = $5, available = $6, updated_at = $7
		WHERE id = $8
	`, food.Name, food.Description, food.Price, food.Category, food.ImageURL, food.Available, food.UpdatedAt, food.ID)
	if err != nil {
		slog.Error("failed to update food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update food item")
		return
	}

	slog.Info("food updated", "food_id", food.ID)

	middleware.JSONResponse(w, http.StatusOK, models.FoodResponse{
		Success: true,
		Message: "Food item updated successfully",
		Food:    food,
	})
}

// DeleteFood handles DELETE /api/admin/foods/{id}
// Cart lines holding the food are removed; placed orders keep their snapshot
func (h *AdminHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	foodID := r.PathValue("id")

	result, err := h.db.ExecContext(r.Context(), `DELETE FROM foods WHERE id = $1`, foodID)
	if err != nil {
		slog.Error("failed to delete food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete food item")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Food item not found")
		return
	}

	slog.Info("food deleted", "food_id", foodID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Food item deleted successfully",
	})
}
