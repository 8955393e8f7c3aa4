// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package payments talks to the payment gateway.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/danielhkuo/food-order/models"
)

// DefaultCurrency is used when a request does not name one
const DefaultCurrency = "INR"

var ErrNotConfigured = errors.New("payment gateway not configured")

// OrderRequest describes a gateway order. Amount is in the smallest currency unit.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates orders that the checkout widget can pay
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*models.GatewayOrder, error)
}

// MaxAmount is the largest rupee amount accepted for a gateway order
const MaxAmount = 100_000_000

// ToMinorUnits converts a rupee amount to paise, rounding to the nearest unit
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Razorpay is the Gateway backed by the Razorpay Orders API
type Razorpay struct {
	client *razorpay.Client
}

// NewRazorpay returns nil when either credential is missing
func NewRazorpay(keyID, keySecret string) *Razorpay {
	if keyID == "" || keySecret == "" {
		return nil
	}
	return &Razorpay{client: razorpay.NewClient(keyID, keySecret)}
}

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*models.GatewayOrder, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	return parseOrder(body)
}

func parseOrder(body map[string]interface{}) (*models.GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response has no id")
	}

	order := &models.GatewayOrder{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Status, _ = body["status"].(string)

	switch amt := body["amount"].(type) {
	case float64:
		order.Amount = int64(amt)
	case int64:
		order.Amount = amt
	case int:
		order.Amount = int64(amt)
	}

	return order, nil
}
