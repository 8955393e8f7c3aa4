// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/payments"
)

// asCaller attaches authenticated claims to req the way RequireAuth does
func asCaller(req *http.Request, subject, role string) *http.Request {
	claims := &auth.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ID: "test-jti"},
	}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

// fakeGateway records gateway order requests and answers with sequential IDs
type fakeGateway struct {
	mu       sync.Mutex
	requests []payments.OrderRequest
	err      error
	onCreate func()
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payments.OrderRequest) (*models.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	if g.onCreate != nil {
		g.onCreate()
	}
	return &models.GatewayOrder{
		ID:       fmt.Sprintf("order_test%d", len(g.requests)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) last() payments.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}
