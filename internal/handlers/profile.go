// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/brewlog/brewlog/internal/auth"
	"codeberg.org/brewlog/brewlog/internal/repository"
	"codeberg.org/brewlog/brewlog/internal/services/storage"
)

// ProfileHandlers contains handlers for the user profile.
type ProfileHandlers struct {
	repo    *repository.Repository
	storage *storage.Service // nil when object storage is not configured
}

// NewProfile creates a new ProfileHandlers instance.
func NewProfile(repo *repository.Repository, store *storage.Service) *ProfileHandlers {
	return &ProfileHandlers{repo: repo, storage: store}
}

// Me returns the authenticated user.
func (h *ProfileHandlers) Me(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// UploadAvatar stores the uploaded image and records its URL on the
// profile. Storage failures are logged and reported, never fatal.
func (h *ProfileHandlers) UploadAvatar(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}
	if h.storage == nil {
		return errorJSON(c, http.StatusNotImplemented, "object storage is not configured")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "avatar file is required")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "could not read avatar file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	url, err := h.storage.UploadAvatar(c.Request().Context(), src, contentType)
	if err != nil {
		slog.Error("avatar upload failed", "error", err, "user_id", user.ID)
		return badRequest(c, "avatar upload failed")
	}

	if err := h.repo.UpdateUserAvatar(c.Request().Context(), user.ID, url); err != nil {
		slog.Error("failed to store avatar url", "error", err, "user_id", user.ID)
		return internalError(c, "failed to update profile")
	}

	return c.JSON(http.StatusOK, map[string]string{"avatar_url": url})
}

// PresignAvatarRequest is the request body for a presigned upload.
type PresignAvatarRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// PresignAvatar hands out a presigned PUT URL so the client can upload
// the image directly to the object store.
func (h *ProfileHandlers) PresignAvatar(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}
	if h.storage == nil {
		return errorJSON(c, http.StatusNotImplemented, "object storage is not configured")
	}

	var req PresignAvatarRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	uploadURL, objectURL, err := h.storage.PresignUpload(c.Request().Context(), req.ContentType)
	if err != nil {
		slog.Error("presign failed", "error", err, "user_id", user.ID)
		return badRequest(c, "presign failed")
	}

	if err := h.repo.UpdateUserAvatar(c.Request().Context(), user.ID, objectURL); err != nil {
		slog.Error("failed to store avatar url", "error", err, "user_id", user.ID)
		return internalError(c, "failed to update profile")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"upload_url": uploadURL,
		"avatar_url": objectURL,
	})
}
