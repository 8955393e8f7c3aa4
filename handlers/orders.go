// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/metrics"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
)

const orderColumns = `id, user_id, status, payment_status, total_amount, delivery_address, notes,
	razorpay_order_id, razorpay_payment_id, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type OrderHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewOrderHandler(db *sql.DB, cfg cliparse.Config) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.DeliveryAddress, &o.Notes,
		&o.RazorpayOrderID, &o.RazorpayPaymentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// loadOrderItems returns the item snapshots of an order
func loadOrderItems(ctx context.Context, q queryer, orderID string) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT food_id, name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY name, food_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.FoodID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// getOrder loads one order with its items
func getOrder(ctx context.Context, q queryer, where string, args ...interface{}) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...))
	if err != nil {
		return nil, err
	}

	order.Items, err = loadOrderItems(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// listOrders loads all matching orders, newest first, with their items
func listOrders(ctx context.Context, q queryer, where string, args ...interface{}) ([]models.Order, error) {
	orders, err := func() ([]models.Order, error) {
		rows, err := q.QueryContext(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE `+where+`
			ORDER BY created_at DESC, id
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		defer rows.Close()

		orders := []models.Order{}
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return nil, fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, *o)
		}
		return orders, rows.Err()
	}()
	if err != nil {
		return nil, err
	}

	// Items are loaded once the order cursor is closed
	for i := range orders {
		orders[i].Items, err = loadOrderItems(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Place handles POST /api/v1/order
// Turns the caller's cart into an order and empties the cart in one transaction.
// Any failure rolls back, leaving the cart as it was.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.PlaceOrderRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Claiming the cart rows first means concurrent placements cannot both see them
	claimed, err := func() ([]models.OrderItem, error) {
		rows, err := tx.QueryContext(ctx, `
			DELETE FROM cart_items WHERE user_id = $1
			RETURNING food_id, quantity
		`, userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var items []models.OrderItem
		for rows.Next() {
			var item models.OrderItem
			if err := rows.Scan(&item.FoodID, &item.Quantity); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, rows.Err()
	}()
	if err != nil {
		slog.Error("failed to claim cart", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if len(claimed) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	var total float64
	items := make([]models.OrderItem, 0, len(claimed))
	for _, item := range claimed {
		var available bool
		err := tx.QueryRowContext(ctx, `
			SELECT name, price, available FROM foods WHERE id = $1
		`, item.FoodID).Scan(&item.Name, &item.Price, &available)
		if err != nil && err != sql.ErrNoRows {
			slog.Error("failed to query food", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err == sql.ErrNoRows || !available {
			name := item.Name
			if name == "" {
				name = "An item in your cart"
			}
			middleware.ErrorResponse(w, http.StatusConflict, name+" is currently unavailable")
			return
		}
		total += item.Price * float64(item.Quantity)
		items = append(items, item)
	}
	total = roundMoney(total)
	slices.SortFunc(items, func(a, b models.OrderItem) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.FoodID, b.FoodID))
	})

	address := req.DeliveryAddress
	if address == "" {
		err := tx.QueryRowContext(ctx, `SELECT address FROM users WHERE id = $1`, userID).Scan(&address)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			slog.Error("failed to query user address", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	orderID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate order ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, payment_status, total_amount, delivery_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, orderID, userID, models.StatusPending, models.PaymentPending, total, address, req.Notes, now, now)
	if err != nil {
		slog.Error("failed to insert order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, food_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, item.FoodID, item.Name, item.Price, item.Quantity)
		if err != nil {
			slog.Error("failed to insert order item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to place order")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	metrics.OrdersPlaced.Inc()
	slog.Info("order placed", "order_id", orderID, "user_id", userID, "items", len(items), "total", total)

	middleware.JSONResponse(w, http.StatusCreated, models.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		TotalAmount:     total,
		DeliveryAddress: address,
		Notes:           req.Notes,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// ListMine handles GET /api/v1/order
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := listOrders(r.Context(), h.db, "user_id = $1", middleware.GetUserID(r.Context()))
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, orders)
}

// Get handles GET /api/v1/order/{id}
// Orders of other users are reported as missing
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, err := getOrder(ctx, h.db, "id = $1 AND user_id = $2", r.PathValue("id"), middleware.GetUserID(ctx))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		slog.Error("failed to query order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, order)
}

// Cancel handles POST /api/v1/order/{id}/cancel
// Only unpaid orders that are still Pending or Confirmed can be cancelled
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := r.PathValue("id")
	userID := middleware.GetUserID(ctx)

	result, err := h.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
		  AND status IN ($5, $6)
		  AND payment_status <> $7
	`, models.StatusCancelled, time.Now().UTC(), orderID, userID,
		models.StatusPending, models.StatusConfirmed, models.PaymentCompleted)
	if err != nil {
		slog.Error("failed to cancel order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	if n, _ := result.RowsAffected(); n == 0 {
		// Distinguish a missing order from one that has moved on
		var exists bool
		err := h.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1 AND user_id = $2)
		`, orderID, userID).Scan(&exists)
		if err != nil {
			slog.Error("failed to query order", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
			return
		}
		middleware.ErrorResponse(w, http.StatusConflict, "Order can no longer be cancelled")
		return
	}

	order, err := getOrder(ctx, h.db, "id = $1", orderID)
	if err != nil {
		slog.Error("failed to reload order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("order cancelled", "order_id", orderID, "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, order)
}
