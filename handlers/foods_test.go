// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/testutil"
)

func TestFoodList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewFoodHandler(db, testutil.GetTestConfig())

	testutil.CreateTestFood(t, db, "Paneer Tikka", "Starters", 220, true)
	testutil.CreateTestFood(t, db, "Gulab Jamun", "Desserts", 90, true)
	testutil.CreateTestFood(t, db, "Kulfi", "Desserts", 70, false)

	list := func(query string) []models.Food {
		w := httptest.NewRecorder()
		h.List(w, testutil.MakeRequest("GET", "/api/v1/foods"+query, nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var foods []models.Food
		testutil.AssertJSON(t, w, &foods)
		return foods
	}

	t.Run("all ordered by name", func(t *testing.T) {
		foods := list("")
		require.Len(t, foods, 3)
		assert.Equal(t, "Gulab Jamun", foods[0].Name)
		assert.Equal(t, "Kulfi", foods[1].Name)
		assert.Equal(t, "Paneer Tikka", foods[2].Name)
	})

	t.Run("by category", func(t *testing.T) {
		assert.Len(t, list("?category=Desserts"), 2)
	})

	t.Run("by availability", func(t *testing.T) {
		foods := list("?category=Desserts&available=true")
		require.Len(t, foods, 1)
		assert.Equal(t, "Gulab Jamun", foods[0].Name)

		foods = list("?available=false")
		require.Len(t, foods, 1)
		assert.Equal(t, "Kulfi", foods[0].Name)
	})

	t.Run("bad availability filter", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, testutil.MakeRequest("GET", "/api/v1/foods?available=maybe", nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("empty catalog category", func(t *testing.T) {
		foods := list("?category=Drinks")
		assert.NotNil(t, foods)
		assert.Empty(t, foods)
	})
}

func TestFoodGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewFoodHandler(db, testutil.GetTestConfig())
	foodID := testutil.CreateTestFood(t, db, "Chole Bhature", "North Indian", 150.5, true)

	req := testutil.MakeRequest("GET", "/api/v1/foods/"+foodID, nil, nil)
	req.SetPathValue("id", foodID)
	w := httptest.NewRecorder()
	h.Get(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var food models.Food
	testutil.AssertJSON(t, w, &food)
	assert.Equal(t, "Chole Bhature", food.Name)
	assert.Equal(t, 150.5, food.Price)
	assert.True(t, food.Available)

	req = testutil.MakeRequest("GET", "/api/v1/foods/missing", nil, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestFoodCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewFoodHandler(db, testutil.GetTestConfig())

	t.Run("defaults to available", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/v1/foods", models.CreateFoodRequest{
			Name:     "Vada Pav",
			Price:    35.456,
			Category: "Street Food",
			ImageURL: "https://cdn.example.com/vada-pav.jpg",
		}, nil)
		w := httptest.NewRecorder()
		h.Create(w, asCaller(req, "admin-1", models.RoleAdmin))

		testutil.AssertStatus(t, w, http.StatusCreated)
		var food models.Food
		testutil.AssertJSON(t, w, &food)
		assert.NotEmpty(t, food.ID)
		assert.True(t, food.Available)
		assert.Equal(t, 35.46, food.Price)

		stored, err := findFood(req.Context(), db, food.ID)
		require.NoError(t, err)
		assert.Equal(t, "Street Food", stored.Category)
	})

	t.Run("explicitly unavailable", func(t *testing.T) {
		off := false
		req := testutil.MakeRequest("POST", "/api/v1/foods", models.CreateFoodRequest{
			Name:      "Seasonal Mango Lassi",
			Price:     80,
			Available: &off,
		}, nil)
		w := httptest.NewRecorder()
		h.Create(w, asCaller(req, "admin-1", models.RoleAdmin))

		testutil.AssertStatus(t, w, http.StatusCreated)
		var food models.Food
		testutil.AssertJSON(t, w, &food)
		assert.False(t, food.Available)
	})

	t.Run("validation", func(t *testing.T) {
		testCases := []struct {
			name string
			req  models.CreateFoodRequest
		}{
			{"missing name", models.CreateFoodRequest{Price: 10}},
			{"zero price", models.CreateFoodRequest{Name: "Free Lunch"}},
			{"negative price", models.CreateFoodRequest{Name: "Refund", Price: -5}},
			{"rounds to zero", models.CreateFoodRequest{Name: "Crumb", Price: 0.001}},
			{"bad image url", models.CreateFoodRequest{Name: "Samosa", Price: 15, ImageURL: "not a url"}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				h.Create(w, asCaller(testutil.MakeRequest("POST", "/api/v1/foods", tc.req, nil), "admin-1", models.RoleAdmin))
				testutil.AssertStatus(t, w, http.StatusBadRequest)
			})
		}
	})
}

func TestFoodList_UnreadableRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewFoodHandler(db, testutil.GetTestConfig())

	testutil.CreateTestFood(t, db, "Rasam", "Soups", 60, true)
	_, err := db.Exec(`INSERT INTO foods (id, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`, "broken", "Broken", "not-a-price", time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.List(w, testutil.MakeRequest("GET", "/api/v1/foods", nil, nil))

	// A partial list would hide the bad row
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}
