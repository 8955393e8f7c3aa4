// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/testutil"
)

type testHandlers struct {
	db       *sql.DB
	cfg      cliparse.Config
	admin    *AdminHandler
	cart     *CartHandler
	orders   *OrderHandler
	payments *PaymentHandler
}

func newTestHandlers(t *testing.T) testHandlers {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	return testHandlers{
		db:       db,
		cfg:      cfg,
		admin:    NewAdminHandler(db, cfg, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)),
		cart:     NewCartHandler(db, cfg),
		orders:   NewOrderHandler(db, cfg),
		payments: NewPaymentHandler(db, cfg, &fakeGateway{}),
	}
}

func (h testHandlers) placeOrder(t *testing.T, userID string) models.Order {
	t.Helper()
	w := httptest.NewRecorder()
	h.orders.Place(w, asCaller(testutil.MakeRequest("POST", "/api/v1/order", models.PlaceOrderRequest{}, nil), userID, models.RoleUser))
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to place order: %d %s", w.Code, w.Body.String())
	}
	var order models.Order
	testutil.AssertJSON(t, w, &order)
	return order
}

func (h testHandlers) setStatus(orderID, status string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("PUT", "/api/admin/orders/"+orderID+"/status", models.UpdateOrderStatusRequest{Status: status}, nil)
	req.SetPathValue("id", orderID)
	w := httptest.NewRecorder()
	h.admin.UpdateOrderStatus(w, asCaller(req, "admin-1", models.RoleAdmin))
	return w
}

// TestOrderLifecycle tests an order from placement to delivery:
// 1. Place order from cart
// 2. Create gateway order for it
// 3. Verify payment (order becomes Confirmed)
// 4. Kitchen and delivery status updates
// 5. Delivered orders are final
func TestOrderLifecycle(t *testing.T) {
	h := newTestHandlers(t)

	userID, _ := testutil.CreateTestUser(t, h.db, h.cfg, "lifecycle@example.com")
	foodID := testutil.CreateTestFood(t, h.db, "Butter Chicken", "Mains", 320, true)
	testutil.AddTestCartItem(t, h.db, userID, foodID, 2)

	// Step 1: Place
	order := h.placeOrder(t, userID)
	if order.TotalAmount != 640 {
		t.Errorf("Expected total 640, got %v", order.TotalAmount)
	}

	// Step 2: Gateway order
	w := httptest.NewRecorder()
	h.payments.CreateOrder(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/create-order",
		models.CreatePaymentOrderRequest{OrderID: order.ID}, nil), userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to create payment order: %d %s", w.Code, w.Body.String())
	}
	var payment models.PaymentOrderResponse
	testutil.AssertJSON(t, w, &payment)
	if payment.Order.Amount != 64000 {
		t.Errorf("Expected 64000 paise, got %d", payment.Order.Amount)
	}

	// Step 3: Verify
	w = httptest.NewRecorder()
	h.payments.VerifyPayment(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/verify-payment", models.VerifyPaymentRequest{
		RazorpayOrderID:   payment.Order.ID,
		RazorpayPaymentID: "pay_lifecycle",
		RazorpaySignature: auth.SignPayment(payment.Order.ID, "pay_lifecycle", h.cfg.RazorpayKeySecret),
	}, nil), userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to verify payment: %d %s", w.Code, w.Body.String())
	}

	stored, err := getOrder(t.Context(), h.db, "id = $1", order.ID)
	if err != nil {
		t.Fatalf("Failed to load order: %v", err)
	}
	if stored.Status != models.StatusConfirmed || stored.PaymentStatus != models.PaymentCompleted {
		t.Errorf("Expected Confirmed/Completed, got %s/%s", stored.Status, stored.PaymentStatus)
	}

	// Step 4: Kitchen and delivery
	for _, status := range []string{models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered} {
		if w := h.setStatus(order.ID, status); w.Code != http.StatusOK {
			t.Fatalf("Failed to move order to %s: %d %s", status, w.Code, w.Body.String())
		}
	}

	// Step 5: Final
	if w := h.setStatus(order.ID, models.StatusPreparing); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 after delivery, got %d", w.Code)
	}
}

// TestCancelledOrderCannotBePaid verifies a cancelled order is no longer
// offered to the gateway
func TestCancelledOrderCannotBePaid(t *testing.T) {
	h := newTestHandlers(t)

	userID, _ := testutil.CreateTestUser(t, h.db, h.cfg, "changed-mind@example.com")
	foodID := testutil.CreateTestFood(t, h.db, "Pani Puri", "Street Food", 60, true)
	testutil.AddTestCartItem(t, h.db, userID, foodID, 1)
	order := h.placeOrder(t, userID)

	req := testutil.MakeRequest("POST", "/api/v1/order/"+order.ID+"/cancel", nil, nil)
	req.SetPathValue("id", order.ID)
	w := httptest.NewRecorder()
	h.orders.Cancel(w, asCaller(req, userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to cancel: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.payments.CreateOrder(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/create-order",
		models.CreatePaymentOrderRequest{OrderID: order.ID}, nil), userID, models.RoleUser))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for cancelled order, got %d", w.Code)
	}
}

// TestCancelAfterPaymentStarted verifies that a payment completing after the
// customer cancelled does not revive the order
func TestCancelAfterPaymentStarted(t *testing.T) {
	h := newTestHandlers(t)

	userID, _ := testutil.CreateTestUser(t, h.db, h.cfg, "late-pay@example.com")
	foodID := testutil.CreateTestFood(t, h.db, "Kulfi", "Desserts", 70, true)
	testutil.AddTestCartItem(t, h.db, userID, foodID, 1)
	order := h.placeOrder(t, userID)

	w := httptest.NewRecorder()
	h.payments.CreateOrder(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/create-order",
		models.CreatePaymentOrderRequest{OrderID: order.ID}, nil), userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to create payment order: %d %s", w.Code, w.Body.String())
	}
	var payment models.PaymentOrderResponse
	testutil.AssertJSON(t, w, &payment)

	req := testutil.MakeRequest("POST", "/api/v1/order/"+order.ID+"/cancel", nil, nil)
	req.SetPathValue("id", order.ID)
	w = httptest.NewRecorder()
	h.orders.Cancel(w, asCaller(req, userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to cancel: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.payments.VerifyPayment(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/verify-payment", models.VerifyPaymentRequest{
		RazorpayOrderID:   payment.Order.ID,
		RazorpayPaymentID: "pay_late",
		RazorpaySignature: auth.SignPayment(payment.Order.ID, "pay_late", h.cfg.RazorpayKeySecret),
	}, nil), userID, models.RoleUser))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for payment on cancelled order, got %d", w.Code)
	}

	stored, err := getOrder(t.Context(), h.db, "id = $1", order.ID)
	if err != nil {
		t.Fatalf("Failed to load order: %v", err)
	}
	if stored.Status != models.StatusCancelled || stored.PaymentStatus != models.PaymentPending {
		t.Errorf("Expected Cancelled/Pending, got %s/%s", stored.Status, stored.PaymentStatus)
	}
}

// TestRetriedCheckoutPayment verifies that a customer who reopens the payment
// step can still pay against the gateway order they were first given
func TestRetriedCheckoutPayment(t *testing.T) {
	h := newTestHandlers(t)

	userID, _ := testutil.CreateTestUser(t, h.db, h.cfg, "retry@example.com")
	foodID := testutil.CreateTestFood(t, h.db, "Masala Dosa", "South Indian", 110, true)
	testutil.AddTestCartItem(t, h.db, userID, foodID, 1)
	order := h.placeOrder(t, userID)

	createPayment := func() models.PaymentOrderResponse {
		w := httptest.NewRecorder()
		h.payments.CreateOrder(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/create-order",
			models.CreatePaymentOrderRequest{OrderID: order.ID}, nil), userID, models.RoleUser))
		if w.Code != http.StatusOK {
			t.Fatalf("Failed to create payment order: %d %s", w.Code, w.Body.String())
		}
		var resp models.PaymentOrderResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	first := createPayment()
	second := createPayment()
	if second.Order.ID != first.Order.ID {
		t.Errorf("Expected gateway order %s to be reused, got %s", first.Order.ID, second.Order.ID)
	}

	w := httptest.NewRecorder()
	h.payments.VerifyPayment(w, asCaller(testutil.MakeRequest("POST", "/api/v1/payment/verify-payment", models.VerifyPaymentRequest{
		RazorpayOrderID:   first.Order.ID,
		RazorpayPaymentID: "pay_retry",
		RazorpaySignature: auth.SignPayment(first.Order.ID, "pay_retry", h.cfg.RazorpayKeySecret),
	}, nil), userID, models.RoleUser))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to verify payment against first gateway order: %d %s", w.Code, w.Body.String())
	}

	stored, err := getOrder(t.Context(), h.db, "id = $1", order.ID)
	if err != nil {
		t.Fatalf("Failed to load order: %v", err)
	}
	if stored.PaymentStatus != models.PaymentCompleted {
		t.Errorf("Expected payment Completed, got %s", stored.PaymentStatus)
	}
}

// TestCatalogChangesAfterCheckout verifies that deleting a dish clears it
// from carts but leaves placed orders untouched
func TestCatalogChangesAfterCheckout(t *testing.T) {
	h := newTestHandlers(t)

	buyer, _ := testutil.CreateTestUser(t, h.db, h.cfg, "buyer@example.com")
	browser, _ := testutil.CreateTestUser(t, h.db, h.cfg, "browser@example.com")
	foodID := testutil.CreateTestFood(t, h.db, "Seasonal Mango Lassi", "Beverages", 90, true)

	testutil.AddTestCartItem(t, h.db, buyer, foodID, 2)
	testutil.AddTestCartItem(t, h.db, browser, foodID, 1)
	order := h.placeOrder(t, buyer)

	req := testutil.MakeRequest("DELETE", "/api/admin/foods/"+foodID, nil, nil)
	req.SetPathValue("id", foodID)
	w := httptest.NewRecorder()
	h.admin.DeleteFood(w, asCaller(req, "admin-1", models.RoleAdmin))
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to delete food: %d %s", w.Code, w.Body.String())
	}

	// The browser's cart no longer has the dish
	w = httptest.NewRecorder()
	h.cart.Get(w, asCaller(testutil.MakeRequest("GET", "/api/cart", nil, nil), browser, models.RoleUser))
	var cart models.Cart
	testutil.AssertJSON(t, w, &cart)
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart after food deletion, got %d items", len(cart.Items))
	}

	// The buyer's order still lists it
	req = testutil.MakeRequest("GET", "/api/v1/order/"+order.ID, nil, nil)
	req.SetPathValue("id", order.ID)
	w = httptest.NewRecorder()
	h.orders.Get(w, asCaller(req, buyer, models.RoleUser))
	testutil.AssertStatus(t, w, http.StatusOK)

	var stored models.Order
	testutil.AssertJSON(t, w, &stored)
	if len(stored.Items) != 1 || stored.Items[0].Name != "Seasonal Mango Lassi" {
		t.Errorf("Expected order snapshot to survive, got %+v", stored.Items)
	}
	if stored.TotalAmount != 180 {
		t.Errorf("Expected total 180, got %v", stored.TotalAmount)
	}
}
