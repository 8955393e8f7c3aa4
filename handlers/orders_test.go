// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/testutil"
)

func TestPlaceOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewOrderHandler(db, cfg)

	userID, _ := testutil.CreateTestUser(t, db, cfg, "order@example.com")
	thali := testutil.CreateTestFood(t, db, "Veg Thali", "Meals", 249.99, true)
	lassi := testutil.CreateTestFood(t, db, "Sweet Lassi", "Beverages", 60, true)

	place := func(body models.PlaceOrderRequest) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Place(w, asCaller(testutil.MakeRequest("POST", "/api/v1/order", body, nil), userID, models.RoleUser))
		return w
	}

	t.Run("empty cart", func(t *testing.T) {
		w := place(models.PlaceOrderRequest{})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		assert.Contains(t, w.Body.String(), "Cart is empty")
	})

	t.Run("snapshots cart and clears it", func(t *testing.T) {
		testutil.AddTestCartItem(t, db, userID, thali, 3)
		testutil.AddTestCartItem(t, db, userID, lassi, 2)

		w := place(models.PlaceOrderRequest{Notes: "Less spicy please"})
		testutil.AssertStatus(t, w, http.StatusCreated)

		var order models.Order
		testutil.AssertJSON(t, w, &order)
		assert.Equal(t, models.StatusPending, order.Status)
		assert.Equal(t, models.PaymentPending, order.PaymentStatus)
		assert.Equal(t, 869.97, order.TotalAmount)
		assert.Equal(t, "12 MG Road, Bengaluru", order.DeliveryAddress, "defaults to the user's address")
		assert.Equal(t, "Less spicy please", order.Notes)
		require.Len(t, order.Items, 2)

		var cartRows int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&cartRows))
		assert.Equal(t, 0, cartRows)

		// Later catalog changes do not rewrite history
		_, err := db.Exec(`UPDATE foods SET price = 999, name = 'Deluxe Thali' WHERE id = $1`, thali)
		require.NoError(t, err)

		stored, err := getOrder(t.Context(), db, "id = $1", order.ID)
		require.NoError(t, err)
		assert.Equal(t, 869.97, stored.TotalAmount)
		var sum float64
		for _, item := range stored.Items {
			sum += item.Price * float64(item.Quantity)
			if item.FoodID == thali {
				assert.Equal(t, "Veg Thali", item.Name)
				assert.Equal(t, 249.99, item.Price)
			}
		}
		assert.Equal(t, stored.TotalAmount, roundMoney(sum))
	})

	t.Run("explicit delivery address", func(t *testing.T) {
		testutil.AddTestCartItem(t, db, userID, lassi, 1)

		w := place(models.PlaceOrderRequest{DeliveryAddress: "Office, 5th floor"})
		testutil.AssertStatus(t, w, http.StatusCreated)

		var order models.Order
		testutil.AssertJSON(t, w, &order)
		assert.Equal(t, "Office, 5th floor", order.DeliveryAddress)
	})

	t.Run("request without a body", func(t *testing.T) {
		testutil.AddTestCartItem(t, db, userID, thali, 1)

		w := httptest.NewRecorder()
		h.Place(w, asCaller(testutil.MakeRequest("POST", "/api/v1/order", nil, nil), userID, models.RoleUser))
		testutil.AssertStatus(t, w, http.StatusCreated)

		var order models.Order
		testutil.AssertJSON(t, w, &order)
		assert.Equal(t, 249.99, order.TotalAmount)
		assert.Equal(t, "12 MG Road, Bengaluru", order.DeliveryAddress)
	})

	t.Run("unavailable item keeps the cart", func(t *testing.T) {
		testutil.AddTestCartItem(t, db, userID, lassi, 1)
		_, err := db.Exec(`UPDATE foods SET available = $1 WHERE id = $2`, false, lassi)
		require.NoError(t, err)

		w := place(models.PlaceOrderRequest{})
		testutil.AssertStatus(t, w, http.StatusConflict)

		var cartRows int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&cartRows))
		assert.Equal(t, 1, cartRows)
	})
}

func TestGetAndListOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewOrderHandler(db, cfg)

	alice, _ := testutil.CreateTestUser(t, db, cfg, "alice@example.com")
	bob, _ := testutil.CreateTestUser(t, db, cfg, "bob@example.com")
	item := models.OrderItem{FoodID: "f1", Name: "Upma", Price: 55, Quantity: 1}

	first := testutil.CreateTestOrder(t, db, alice, models.StatusDelivered, models.PaymentCompleted, item)
	second := testutil.CreateTestOrder(t, db, alice, models.StatusPending, models.PaymentPending, item)
	bobs := testutil.CreateTestOrder(t, db, bob, models.StatusPending, models.PaymentPending, item)

	w := httptest.NewRecorder()
	h.ListMine(w, asCaller(testutil.MakeRequest("GET", "/api/v1/order", nil, nil), alice, models.RoleUser))
	testutil.AssertStatus(t, w, http.StatusOK)

	var orders []models.Order
	testutil.AssertJSON(t, w, &orders)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID, "newest first")
	assert.Equal(t, first, orders[1].ID)
	assert.Len(t, orders[0].Items, 1)

	get := func(orderID, caller string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/api/v1/order/"+orderID, nil, nil)
		req.SetPathValue("id", orderID)
		w := httptest.NewRecorder()
		h.Get(w, asCaller(req, caller, models.RoleUser))
		return w
	}

	testutil.AssertStatus(t, get(first, alice), http.StatusOK)
	testutil.AssertStatus(t, get(bobs, alice), http.StatusNotFound)
	testutil.AssertStatus(t, get("missing", alice), http.StatusNotFound)
}

func TestCancelOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewOrderHandler(db, cfg)

	userID, _ := testutil.CreateTestUser(t, db, cfg, "cancel@example.com")
	otherID, _ := testutil.CreateTestUser(t, db, cfg, "other@example.com")
	item := models.OrderItem{FoodID: "f1", Name: "Poha", Price: 45, Quantity: 2}

	cancel := func(orderID, caller string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/v1/order/"+orderID+"/cancel", nil, nil)
		req.SetPathValue("id", orderID)
		w := httptest.NewRecorder()
		h.Cancel(w, asCaller(req, caller, models.RoleUser))
		return w
	}

	testCases := []struct {
		name          string
		status        string
		paymentStatus string
		caller        string
		expected      int
	}{
		{"pending unpaid", models.StatusPending, models.PaymentPending, userID, http.StatusOK},
		{"confirmed unpaid", models.StatusConfirmed, models.PaymentFailed, userID, http.StatusOK},
		{"already paid", models.StatusConfirmed, models.PaymentCompleted, userID, http.StatusConflict},
		{"preparing", models.StatusPreparing, models.PaymentPending, userID, http.StatusConflict},
		{"already cancelled", models.StatusCancelled, models.PaymentPending, userID, http.StatusConflict},
		{"someone else's order", models.StatusPending, models.PaymentPending, otherID, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderID := testutil.CreateTestOrder(t, db, userID, tc.status, tc.paymentStatus, item)

			w := cancel(orderID, tc.caller)
			testutil.AssertStatus(t, w, tc.expected)

			if tc.expected == http.StatusOK {
				var order models.Order
				testutil.AssertJSON(t, w, &order)
				assert.Equal(t, models.StatusCancelled, order.Status)
				assert.Len(t, order.Items, 1)
			}
		})
	}
}
