// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
)

type CartHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCartHandler(db *sql.DB, cfg cliparse.Config) *CartHandler {
	return &CartHandler{db: db, cfg: cfg}
}

var quantityLimitMessage = fmt.Sprintf("quantity cannot exceed %d", models.MaxCartQuantity)

// loadCart returns the user's cart with current catalog prices
func loadCart(ctx context.Context, db *sql.DB, userID string) (*models.Cart, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.food_id, f.name, f.price, c.quantity, f.available
		FROM cart_items c
		JOIN foods f ON f.id = c.food_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, c.food_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	cart := &models.Cart{Items: []models.CartLine{}}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.FoodID, &line.Name, &line.Price, &line.Quantity, &line.Available); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.Subtotal = roundMoney(line.Price * float64(line.Quantity))
		cart.Total += line.Subtotal
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}

	cart.Total = roundMoney(cart.Total)
	return cart, nil
}

// respondCart writes the caller's current cart
func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, status int) {
	cart, err := loadCart(r.Context(), h.db, middleware.GetUserID(r.Context()))
	if err != nil {
		slog.Error("failed to load cart", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, status, cart)
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, http.StatusOK)
}

// AddItem handles POST /api/cart/items
// Adding a food already in the cart increases its quantity
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.AddCartItemRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity > models.MaxCartQuantity {
		middleware.ErrorResponse(w, http.StatusBadRequest, quantityLimitMessage)
		return
	}

	var available bool
	err := h.db.QueryRowContext(ctx, `SELECT available FROM foods WHERE id = $1`, req.FoodID).Scan(&available)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Food item not found")
		return
	}
	if err != nil {
		slog.Error("failed to query food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !available {
		middleware.ErrorResponse(w, http.StatusConflict, "Food item is currently unavailable")
		return
	}

	// The conditional upsert keeps the line at or under the cap in one statement
	result, err := h.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, food_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, food_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity
		WHERE cart_items.quantity + excluded.quantity <= $5
	`, userID, req.FoodID, req.Quantity, time.Now().UTC(), models.MaxCartQuantity)
	if err != nil {
		slog.Error("failed to upsert cart item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, quantityLimitMessage)
		return
	}

	slog.Info("cart item added", "user_id", userID, "food_id", req.FoodID, "quantity", req.Quantity)
	h.respondCart(w, r, http.StatusOK)
}

// UpdateItem handles PUT /api/cart/items/{foodId}
// A quantity of zero removes the line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	foodID := r.PathValue("foodId")

	var req models.UpdateCartItemRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}
	quantity := *req.Quantity
	if quantity > models.MaxCartQuantity {
		middleware.ErrorResponse(w, http.StatusBadRequest, quantityLimitMessage)
		return
	}

	var (
		result sql.Result
		err    error
	)
	if quantity == 0 {
		result, err = h.db.ExecContext(ctx, `
			DELETE FROM cart_items WHERE user_id = $1 AND food_id = $2
		`, userID, foodID)
	} else {
		result, err = h.db.ExecContext(ctx, `
			UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND food_id = $3
		`, quantity, userID, foodID)
	}
	if err != nil {
		slog.Error("failed to update cart item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Item not in cart")
		return
	}

	h.respondCart(w, r, http.StatusOK)
}

// RemoveItem handles DELETE /api/cart/items/{foodId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND food_id = $2
	`, middleware.GetUserID(ctx), r.PathValue("foodId"))
	if err != nil {
		slog.Error("failed to remove cart item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Item not in cart")
		return
	}

	h.respondCart(w, r, http.StatusOK)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, err := h.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, middleware.GetUserID(ctx))
	if err != nil {
		slog.Error("failed to clear cart", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	h.respondCart(w, r, http.StatusOK)
}
