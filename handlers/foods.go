// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/cliparse"
	"github.com/danielhkuo/food-order/middleware"
	"github.com/danielhkuo/food-order/models"
)

const foodColumns = `id, name, description, price, category, image_url, available, created_at, updated_at`

type FoodHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewFoodHandler(db *sql.DB, cfg cliparse.Config) *FoodHandler {
	return &FoodHandler{db: db, cfg: cfg}
}

// roundMoney rounds a rupee amount to whole paise
func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFood(row rowScanner) (*models.Food, error) {
	var f models.Food
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Category, &f.ImageURL, &f.Available, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func findFood(ctx context.Context, db *sql.DB, foodID string) (*models.Food, error) {
	return scanFood(db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, foodID))
}

// List handles GET /api/v1/foods
// Supports ?category= and ?available=true|false filters
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE 1 = 1`
	var args []interface{}

	if category := r.URL.Query().Get("category"); category != "" {
		args = append(args, category)
		query += " AND category = $" + strconv.Itoa(len(args))
	}

	if raw := r.URL.Query().Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "available must be true or false")
			return
		}
		args = append(args, available)
		query += " AND available = $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY name, id"

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query foods", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	foods := []models.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			slog.Error("failed to scan food", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		foods = append(foods, *f)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate foods", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, foods)
}

// Get handles GET /api/v1/foods/{id}
func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	food, err := findFood(r.Context(), h.db, r.PathValue("id"))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Food item not found")
		return
	}
	if err != nil {
		slog.Error("failed to query food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, food)
}

// Create handles POST /api/v1/foods (admin only)
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFoodRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	foodID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate food ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create food item")
		return
	}

	now := time.Now().UTC()
	food := models.Food{
		ID:          foodID,
		Name:        req.Name,
		Description: req.Description,
		Price:       roundMoney(req.Price),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Available != nil {
		food.Available = *req.Available
	}
	if food.Price <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "price is invalid")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO foods (`+foodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, food.ID, food.Name, food.Description, food.Price, food.Category, food.ImageURL, food.Available, food.CreatedAt, food.UpdatedAt)
	if err != nil {
		slog.Error("failed to insert food", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create food item")
		return
	}

	slog.Info("food created", "food_id", food.ID, "admin_id", middleware.GetUserID(r.Context()))

	middleware.JSONResponse(w, http.StatusCreated, food)
}
