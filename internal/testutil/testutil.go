// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/brewlog/brewlog/internal/database"
	"codeberg.org/brewlog/brewlog/internal/models"
	"codeberg.org/brewlog/brewlog/internal/repository"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestUser creates a verified test user in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:         email,
		PasswordHash:  "not-a-real-hash",
		DisplayName:   "Test User",
		EmailVerified: 1,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestCoffee creates a coffee entry for a user.
func NewTestCoffee(t *testing.T, repo *repository.Repository, userID int64, name, brand string) *models.Coffee {
	t.Helper()
	coffee := &models.Coffee{
		UserID:      userID,
		Name:        name,
		Brand:       brand,
		Preparation: "espresso",
		Shots:       2,
		Flavor:      "chocolate",
		Rating:      4,
	}
	require.NoError(t, repo.CreateCoffee(context.Background(), coffee))
	return coffee
}

// BackdateCoffee moves a coffee entry's creation time, for testing
// ordering and time-range filters.
func BackdateCoffee(t *testing.T, db *sqlx.DB, coffeeID int64, createdAt time.Time) {
	t.Helper()
	_, err := db.Exec(`UPDATE coffees SET created_at = ? WHERE id = ?`, createdAt, coffeeID)
	require.NoError(t, err)
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
