// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func errorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"error": message})
}

func badRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, message)
}

func unauthorized(c echo.Context, message string) error {
	return errorJSON(c, http.StatusUnauthorized, message)
}

// notFound is the uniform response for entries that do not exist or
// belong to another user. Both cases look identical to the client.
func notFound(c echo.Context) error {
	return errorJSON(c, http.StatusNotFound, "invalid or not found")
}

func internalError(c echo.Context, message string) error {
	return errorJSON(c, http.StatusInternalServerError, message)
}
