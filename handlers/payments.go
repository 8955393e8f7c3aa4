// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/metrics"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/payments"
)

type PaymentHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	gateway payments.Gateway
	now     func() time.Time
}

func NewPaymentHandler(db *sql.DB, cfg cliparse.Config, gateway payments.Gateway) *PaymentHandler {
	return &PaymentHandler{db: db, cfg: cfg, gateway: gateway, now: time.Now}
}

// CreateOrder handles POST /api/v1/payment/create-order
// With order_id the amount comes from that order, otherwise from the body
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.CreatePaymentOrderRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	amount := req.Amount
	if req.OrderID != "" {
		var status, paymentStatus string
		err := h.db.QueryRowContext(ctx, `
			SELECT total_amount, status, payment_status FROM orders WHERE id = $1 AND user_id = $2
		`, req.OrderID, userID).Scan(&amount, &status, &paymentStatus)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
			return
		}
		if err != nil {
			slog.Error("failed to query order", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if status != models.StatusPending || paymentStatus == models.PaymentCompleted {
			middleware.ErrorResponse(w, http.StatusConflict, "Order is not awaiting payment")
			return
		}

		// Repeat requests get the same gateway order so any payment made against it can be matched
		existing, err := findPaymentOrder(ctx, h.db, req.OrderID)
		if err != nil && err != sql.ErrNoRows {
			slog.Error("failed to query payment order", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if existing != nil {
			slog.Info("payment order reused", "gateway_order_id", existing.ID, "order_id", req.OrderID)
			middleware.JSONResponse(w, http.StatusOK, models.PaymentOrderResponse{Success: true, Order: *existing})
			return
		}
	}

	if amount <= 0 || amount > payments.MaxAmount {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = payments.DefaultCurrency
	}

	if h.gateway == nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Payment gateway not configured")
		return
	}

	gwOrder, err := h.gateway.CreateOrder(ctx, payments.OrderRequest{
		Amount:   payments.ToMinorUnits(amount),
		Currency: currency,
		Receipt:  "receipt_" + strconv.FormatInt(h.now().UnixMilli(), 10),
	})
	if errors.Is(err, payments.ErrNotConfigured) {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Payment gateway not configured")
		return
	}
	if err != nil {
		slog.Error("failed to create gateway order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if req.OrderID != "" {
		linked, status, err := h.linkPaymentOrder(ctx, req.OrderID, gwOrder)
		if err != nil {
			slog.Error("failed to link gateway order", "error", err, "order_id", req.OrderID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create order")
			return
		}
		if status != 0 {
			middleware.ErrorResponse(w, status, "Order is not awaiting payment")
			return
		}
		gwOrder = linked
	}

	slog.Info("payment order created", "gateway_order_id", gwOrder.ID, "order_id", req.OrderID, "amount", gwOrder.Amount)

	middleware.JSONResponse(w, http.StatusOK, models.PaymentOrderResponse{
		Success: true,
		Order:   *gwOrder,
	})
}

// findPaymentOrder returns the gateway order stored for a local order
func findPaymentOrder(ctx context.Context, q queryer, orderID string) (*models.GatewayOrder, error) {
	var g models.GatewayOrder
	err := q.QueryRowContext(ctx, `
		SELECT gateway_order_id, amount, currency, receipt, status
		FROM payment_orders
		WHERE order_id = $1
	`, orderID).Scan(&g.ID, &g.Amount, &g.Currency, &g.Receipt, &g.Status)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// linkPaymentOrder stores gwOrder against the local order. When a concurrent
// request linked one first, that order is returned instead. A non-zero status
// means the order stopped awaiting payment in the meantime.
func (h *PaymentHandler) linkPaymentOrder(ctx context.Context, orderID string, gwOrder *models.GatewayOrder) (*models.GatewayOrder, int, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO payment_orders (gateway_order_id, order_id, amount, currency, receipt, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO NOTHING
	`, gwOrder.ID, orderID, gwOrder.Amount, gwOrder.Currency, gwOrder.Receipt, gwOrder.Status, now)
	if err != nil {
		return nil, 0, fmt.Errorf("insert payment order: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		existing, err := findPaymentOrder(ctx, tx, orderID)
		if err != nil {
			return nil, 0, fmt.Errorf("load payment order: %w", err)
		}
		slog.Warn("discarding duplicate gateway order", "gateway_order_id", gwOrder.ID, "order_id", orderID)
		return existing, 0, nil
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE orders SET razorpay_order_id = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND payment_status <> $5
	`, gwOrder.ID, now, orderID, models.StatusPending, models.PaymentCompleted)
	if err != nil {
		return nil, 0, fmt.Errorf("update order: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, http.StatusConflict, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return gwOrder, 0, nil
}

// VerifyPayment handles POST /api/v1/payment/verify-payment
// A valid signature marks the linked order paid and confirms it if still pending
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.VerifyPaymentRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	if h.cfg.RazorpayKeySecret == "" {
		slog.Error("payment verification unavailable - key secret not configured")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Payment gateway not configured")
		return
	}

	err := auth.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, h.cfg.RazorpayKeySecret)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues(metrics.OutcomeInvalidSignature).Inc()
		slog.Warn("payment signature mismatch", "gateway_order_id", req.RazorpayOrderID)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid payment signature")
		return
	}

	var orderID string
	err = h.db.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE razorpay_order_id = $1
	`, req.RazorpayOrderID).Scan(&orderID)
	if err == sql.ErrNoRows {
		metrics.PaymentVerifications.WithLabelValues(metrics.OutcomeOrderNotFound).Inc()
		middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		slog.Error("failed to query order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	result, err := h.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1,
		    razorpay_payment_id = $2,
		    status = CASE WHEN status = $3 THEN $4 ELSE status END,
		    updated_at = $5
		WHERE id = $6 AND status <> $7 AND payment_status <> $1
	`, models.PaymentCompleted, req.RazorpayPaymentID, models.StatusPending, models.StatusConfirmed, time.Now().UTC(), orderID, models.StatusCancelled)
	if err != nil {
		slog.Error("failed to record payment", "error", err, "order_id", orderID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record payment")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		h.rejectPayment(w, r, orderID, req.RazorpayPaymentID)
		return
	}

	metrics.PaymentVerifications.WithLabelValues(metrics.OutcomeVerified).Inc()
	slog.Info("payment verified", "order_id", orderID, "payment_id", req.RazorpayPaymentID)

	middleware.JSONResponse(w, http.StatusOK, models.VerifyPaymentResponse{
		Success: true,
		Message: "Payment verified successfully",
		OrderID: orderID,
	})
}

// rejectPayment answers a verified payment whose order can no longer take it.
// Replaying the payment that was already recorded succeeds.
func (h *PaymentHandler) rejectPayment(w http.ResponseWriter, r *http.Request, orderID, paymentID string) {
	var status, paymentStatus string
	var recorded sql.NullString
	err := h.db.QueryRowContext(r.Context(), `
		SELECT status, payment_status, razorpay_payment_id FROM orders WHERE id = $1
	`, orderID).Scan(&status, &paymentStatus, &recorded)
	if err != nil {
		slog.Error("failed to query order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if paymentStatus == models.PaymentCompleted {
		metrics.PaymentVerifications.WithLabelValues(metrics.OutcomeAlreadyPaid).Inc()
		if recorded.String == paymentID {
			middleware.JSONResponse(w, http.StatusOK, models.VerifyPaymentResponse{
				Success: true,
				Message: "Payment already verified",
				OrderID: orderID,
			})
			return
		}
		slog.Warn("second payment for a paid order", "order_id", orderID, "payment_id", paymentID)
		middleware.ErrorResponse(w, http.StatusConflict, "Order is already paid")
		return
	}

	metrics.PaymentVerifications.WithLabelValues(metrics.OutcomeOrderCancelled).Inc()
	slog.Warn("payment for a cancelled order needs a refund", "order_id", orderID, "payment_id", paymentID)
	middleware.ErrorResponse(w, http.StatusConflict, "Order was cancelled")
}

// SessionToken handles POST /api/v1/payment/session-token
func (h *PaymentHandler) SessionToken(w http.ResponseWriter, r *http.Request) {
	token, err := auth.NewSessionToken(middleware.GetUserID(r.Context()), h.cfg.RazorpayKeySecret, h.now())
	if errors.Is(err, auth.ErrMissingSecret) {
		slog.Error("session token unavailable - key secret not configured")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Payment gateway not configured")
		return
	}
	if err != nil {
		slog.Error("failed to sign session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session token")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionTokenResponse{SessionToken: token})
}
