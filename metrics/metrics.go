// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for the API.
// Collectors are registered on the default registry at init and served by
// Handler on GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Payment verification outcomes
const (
	OutcomeVerified         = "verified"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeOrderNotFound    = "order_not_found"
	OutcomeOrderCancelled   = "order_cancelled"
	OutcomeAlreadyPaid      = "already_paid"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_order_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "food_order_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	UsersRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_order_users_registered_total",
		Help: "Accounts created, by role",
	}, []string{"role"})

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_order_orders_placed_total",
		Help: "Orders placed from carts",
	})

	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_order_payment_verifications_total",
		Help: "Payment signature verifications by outcome",
	}, []string{"outcome"})

	RevocationCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "food_order_token_revocation_check_duration_seconds",
		Help:    "Latency of token revocation lookups",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})
)

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
