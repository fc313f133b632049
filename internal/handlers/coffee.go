// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/brewlog/brewlog/internal/auth"
	"codeberg.org/brewlog/brewlog/internal/models"
	"codeberg.org/brewlog/brewlog/internal/repository"
)

// CoffeeHandlers contains handlers for coffee entries.
type CoffeeHandlers struct {
	repo *repository.Repository
}

// NewCoffee creates a new CoffeeHandlers instance.
func NewCoffee(repo *repository.Repository) *CoffeeHandlers {
	return &CoffeeHandlers{repo: repo}
}

// CoffeeRequest is the request body for creating and updating entries.
type CoffeeRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Brand       string `json:"brand" validate:"required,max=200"`
	Preparation string `json:"preparation" validate:"required,max=100"`
	Shots       int64  `json:"shots" validate:"gte=0,lte=10"`
	Flavor      string `json:"flavor" validate:"max=200"`
	Rating      int64  `json:"rating" validate:"required,gte=1,lte=5"`
	Description string `json:"description" validate:"max=2000"`
}

// Create stores a new coffee entry for the authenticated user.
func (h *CoffeeHandlers) Create(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	var req CoffeeRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	coffee := &models.Coffee{
		UserID:      user.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Preparation: req.Preparation,
		Shots:       req.Shots,
		Flavor:      req.Flavor,
		Rating:      req.Rating,
		Description: req.Description,
	}
	if err := h.repo.CreateCoffee(c.Request().Context(), coffee); err != nil {
		slog.Error("failed to create coffee entry", "error", err, "user_id", user.ID)
		return internalError(c, "failed to create entry")
	}

	return c.JSON(http.StatusCreated, coffee)
}

// Get returns a single coffee entry.
func (h *CoffeeHandlers) Get(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	coffee, err := h.repo.GetCoffee(c.Request().Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c)
		}
		slog.Error("failed to get coffee entry", "error", err, "user_id", user.ID)
		return internalError(c, "failed to get entry")
	}

	return c.JSON(http.StatusOK, coffee)
}

// List returns a page of the user's coffee entries, newest first.
func (h *CoffeeHandlers) List(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", repository.DefaultPerPage)

	entries, pagination, err := h.repo.ListCoffeesPaginated(c.Request().Context(), user.ID, page, perPage)
	if err != nil {
		slog.Error("failed to list coffee entries", "error", err, "user_id", user.ID)
		return internalError(c, "failed to list entries")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries":    entries,
		"pagination": pagination,
	})
}

// Update replaces a coffee entry.
func (h *CoffeeHandlers) Update(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	var req CoffeeRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	coffee := &models.Coffee{
		ID:          id,
		UserID:      user.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Preparation: req.Preparation,
		Shots:       req.Shots,
		Flavor:      req.Flavor,
		Rating:      req.Rating,
		Description: req.Description,
	}
	if err := h.repo.UpdateCoffee(c.Request().Context(), coffee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c)
		}
		slog.Error("failed to update coffee entry", "error", err, "user_id", user.ID)
		return internalError(c, "failed to update entry")
	}

	return c.JSON(http.StatusOK, coffee)
}

// Delete removes a coffee entry.
func (h *CoffeeHandlers) Delete(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	if err := h.repo.DeleteCoffee(c.Request().Context(), user.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c)
		}
		slog.Error("failed to delete coffee entry", "error", err, "user_id", user.ID)
		return internalError(c, "failed to delete entry")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Names returns the user's deduplicated (name, brand) pairs for
// pre-filling repeat entries.
func (h *CoffeeHandlers) Names(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	picks, err := h.repo.DistinctCoffeeNames(c.Request().Context(), user.ID)
	if err != nil {
		slog.Error("failed to list coffee names", "error", err, "user_id", user.ID)
		return internalError(c, "failed to list names")
	}

	return c.JSON(http.StatusOK, map[string]any{"names": picks})
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
