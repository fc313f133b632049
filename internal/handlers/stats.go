// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/brewlog/brewlog/internal/auth"
	"codeberg.org/brewlog/brewlog/internal/repository"
	"codeberg.org/brewlog/brewlog/internal/services/stats"
)

// StatsHandlers contains handlers for consumption statistics.
type StatsHandlers struct {
	repo *repository.Repository
}

// NewStats creates a new StatsHandlers instance.
func NewStats(repo *repository.Repository) *StatsHandlers {
	return &StatsHandlers{repo: repo}
}

// Summary aggregates the user's entries over an optional time range.
// The months query parameter accepts 1, 3, 6 or 12; anything else means
// all time.
func (h *StatsHandlers) Summary(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	months := queryInt(c, "months", 0)
	switch months {
	case 1, 3, 6, 12:
	default:
		months = 0
	}

	entries, err := h.repo.ListCoffees(c.Request().Context(), user.ID)
	if err != nil {
		slog.Error("failed to load entries for stats", "error", err, "user_id", user.ID)
		return internalError(c, "failed to compute statistics")
	}

	summary := stats.Compute(entries, months, time.Now())

	return c.JSON(http.StatusOK, summary)
}
