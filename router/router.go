// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/handlers"
	"github.com/danielhkuo/food-order/metrics"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/payments"
	"github.com/danielhkuo/food-order/revocation"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, revoked revocation.Store, gateway payments.Gateway) *http.ServeMux {
	mux := http.NewServeMux()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authn := middleware.NewAuthenticator(tokens, revoked)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg, tokens, revoked)
	adminHandler := handlers.NewAdminHandler(db, cfg, tokens)
	foodHandler := handlers.NewFoodHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg)
	paymentHandler := handlers.NewPaymentHandler(db, cfg, gateway)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// Customer accounts
	mux.HandleFunc("POST /api/v1/users/signup", middleware.WithLogging(userHandler.Signup))
	mux.HandleFunc("POST /api/v1/users/login", middleware.WithLogging(userHandler.Login))
	mux.HandleFunc("POST /api/v1/users/logout", middleware.WithLogging(authn.RequireAuth(userHandler.Logout)))
	mux.HandleFunc("GET /api/v1/users/profile", middleware.WithLogging(authn.RequireUser(userHandler.GetProfile)))
	mux.HandleFunc("PUT /api/v1/users/profile", middleware.WithLogging(authn.RequireUser(userHandler.UpdateProfile)))

	// Administration
	mux.HandleFunc("POST /api/admin/signup", middleware.WithLogging(adminHandler.Signup))
	mux.HandleFunc("POST /api/admin/login", middleware.WithLogging(adminHandler.Login))
	mux.HandleFunc("GET /api/admin/users", middleware.WithLogging(authn.RequireAdmin(adminHandler.ListUsers)))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.WithLogging(authn.RequireAdmin(adminHandler.DeleteUser)))
	mux.HandleFunc("GET /api/admin/orders", middleware.WithLogging(authn.RequireAdmin(adminHandler.ListOrders)))
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", middleware.WithLogging(authn.RequireAdmin(adminHandler.UpdateOrderStatus)))
	mux.HandleFunc("PUT /api/admin/foods/{id}", middleware.WithLogging(authn.RequireAdmin(adminHandler.UpdateFood)))
	mux.HandleFunc("DELETE /api/admin/foods/{id}", middleware.WithLogging(authn.RequireAdmin(adminHandler.DeleteFood)))

	// Catalog (reads are public)
	mux.HandleFunc("GET /api/v1/foods", middleware.WithLogging(foodHandler.List))
	mux.HandleFunc("GET /api/v1/foods/{id}", middleware.WithLogging(foodHandler.Get))
	mux.HandleFunc("POST /api/v1/foods", middleware.WithLogging(authn.RequireAdmin(foodHandler.Create)))

	// Cart
	mux.HandleFunc("GET /api/cart", middleware.WithLogging(authn.RequireUser(cartHandler.Get)))
	mux.HandleFunc("DELETE /api/cart", middleware.WithLogging(authn.RequireUser(cartHandler.Clear)))
	mux.HandleFunc("POST /api/cart/items", middleware.WithLogging(authn.RequireUser(cartHandler.AddItem)))
	mux.HandleFunc("PUT /api/cart/items/{foodId}", middleware.WithLogging(authn.RequireUser(cartHandler.UpdateItem)))
	mux.HandleFunc("DELETE /api/cart/items/{foodId}", middleware.WithLogging(authn.RequireUser(cartHandler.RemoveItem)))

	// Orders
	mux.HandleFunc("POST /api/v1/order", middleware.WithLogging(authn.RequireUser(orderHandler.Place)))
	mux.HandleFunc("GET /api/v1/order", middleware.WithLogging(authn.RequireUser(orderHandler.ListMine)))
	mux.HandleFunc("GET /api/v1/order/{id}", middleware.WithLogging(authn.RequireUser(orderHandler.Get)))
	mux.HandleFunc("POST /api/v1/order/{id}/cancel", middleware.WithLogging(authn.RequireUser(orderHandler.Cancel)))

	// Payments
	mux.HandleFunc("POST /api/v1/payment/create-order", middleware.WithLogging(authn.RequireUser(paymentHandler.CreateOrder)))
	mux.HandleFunc("POST /api/v1/payment/verify-payment", middleware.WithLogging(authn.RequireUser(paymentHandler.VerifyPayment)))
	mux.HandleFunc("POST /api/v1/payment/session-token", middleware.WithLogging(authn.RequireUser(paymentHandler.SessionToken)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to the Food Order App"))
	})

	return mux
}
