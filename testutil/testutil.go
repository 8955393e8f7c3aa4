// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/db"
	"github.com/danielhkuo/food-order/models"
)

// TestPassword is the plain-text password of every account created here
const TestPassword = "password123"

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      cliparse.DatabaseSQLite,
		JWTSecret:         "test-jwt-secret",
		JWTTTL:            time.Hour,
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: "test-razorpay-secret",
		AllowedOrigins:    []string{"http://localhost:5173"},
	}
}

// IssueTestToken signs an access token for subject with the config's secret
func IssueTestToken(t *testing.T, cfg cliparse.Config, subject, role string) string {
	t.Helper()

	token, _, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL).Issue(subject, role)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// CreateTestUser inserts a customer with TestPassword and returns its ID and a token
func CreateTestUser(t *testing.T, db *sql.DB, cfg cliparse.Config, email string) (userID, token string) {
	t.Helper()

	userID, _ = auth.GenerateID(16)
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO users (id, first_name, last_name, email, password_hash, phone, address, created_at, updated_at)
		VALUES ($1, 'Test', 'User', $2, $3, '9876543210', '12 MG Road, Bengaluru', $4, $5)
	`, userID, email, hash, now, now)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID, IssueTestToken(t, cfg, userID, models.RoleUser)
}

// CreateTestAdmin inserts an administrator with TestPassword and returns its ID and a token
func CreateTestAdmin(t *testing.T, db *sql.DB, cfg cliparse.Config, email string) (adminID, token string) {
	t.Helper()

	adminID, _ = auth.GenerateID(16)
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (id, first_name, last_name, email, password_hash, created_at)
		VALUES ($1, 'Test', 'Admin', $2, $3, $4)
	`, adminID, email, hash, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}

	return adminID, IssueTestToken(t, cfg, adminID, models.RoleAdmin)
}

// CreateTestFood adds a catalog item and returns its ID
func CreateTestFood(t *testing.T, db *sql.DB, name, category string, price float64, available bool) string {
	t.Helper()

	foodID, _ := auth.GenerateID(16)
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO foods (id, name, description, price, category, image_url, available, created_at, updated_at)
		VALUES ($1, $2, '', $3, $4, '', $5, $6, $7)
	`, foodID, name, price, category, available, now, now)
	if err != nil {
		t.Fatalf("Failed to create test food: %v", err)
	}

	return foodID
}

// AddTestCartItem puts quantity units of a food into a user's cart
func AddTestCartItem(t *testing.T, db *sql.DB, userID, foodID string, quantity int) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO cart_items (user_id, food_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
	`, userID, foodID, quantity, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to add test cart item: %v", err)
	}
}

// CreateTestOrder inserts an order with the given items and returns its ID.
// The total is the sum of the item lines.
func CreateTestOrder(t *testing.T, db *sql.DB, userID, status, paymentStatus string, items ...models.OrderItem) string {
	t.Helper()

	orderID, _ := auth.GenerateID(16)

	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	total = math.Round(total*100) / 100

	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO orders (id, user_id, status, payment_status, total_amount, delivery_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '12 MG Road, Bengaluru', '', $6, $7)
	`, orderID, userID, status, paymentStatus, total, now, now)
	if err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	for _, item := range items {
		_, err := db.Exec(`
			INSERT INTO order_items (order_id, food_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, item.FoodID, item.Name, item.Price, item.Quantity)
		if err != nil {
			t.Fatalf("Failed to create test order item: %v", err)
		}
	}

	return orderID
}

// SetTestGatewayOrderID links an order to a payment gateway order
func SetTestGatewayOrderID(t *testing.T, db *sql.DB, orderID, gatewayOrderID string) {
	t.Helper()

	_, err := db.Exec(`UPDATE orders SET razorpay_order_id = $1 WHERE id = $2`, gatewayOrderID, orderID)
	if err != nil {
		t.Fatalf("Failed to set gateway order id: %v", err)
	}
}

// BearerHeader returns the Authorization header for token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
