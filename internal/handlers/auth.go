// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/brewlog/brewlog/internal/auth"
	authsvc "codeberg.org/brewlog/brewlog/internal/services/auth"
	"codeberg.org/brewlog/brewlog/internal/services/session"
	"codeberg.org/brewlog/brewlog/internal/services/token"
)

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	auth     *authsvc.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service, sess *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		auth:     svc,
		sessions: sess,
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// Register creates a new unverified account and sends a confirmation email.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), authsvc.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	switch {
	case errors.Is(err, authsvc.ErrUserExists):
		return errorJSON(c, http.StatusConflict, "email already registered")
	case errors.Is(err, authsvc.ErrInvalidEmail):
		return badRequest(c, "invalid email address")
	case errors.Is(err, authsvc.ErrWeakPassword):
		return badRequest(c, "password does not meet requirements")
	case err != nil:
		slog.Error("registration failed", "error", err)
		return internalError(c, "registration failed")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"user":    user,
		"message": "confirmation email sent",
	})
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, authsvc.ErrEmailNotVerified):
		// Distinct status so clients can offer a resend action.
		return c.JSON(http.StatusForbidden, map[string]string{
			"error":              "email address not verified",
			"needs_verification": "true",
		})
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return unauthorized(c, "invalid credentials")
	case err != nil:
		slog.Error("login failed", "error", err)
		return internalError(c, "login failed")
	}

	cookie, err := h.sessions.Create(user.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err, "user_id", user.ID)
		return internalError(c, "failed to create session")
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ForgotPasswordRequest is the request body for requesting a reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword issues a reset token. The response does not reveal
// whether the account exists.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		slog.Error("password reset request failed", "error", err)
		return internalError(c, "password reset request failed")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "if the account exists, a reset email has been sent",
	})
}

// ResetPasswordRequest is the request body for completing a reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.Password)
	switch {
	case errors.Is(err, authsvc.ErrWeakPassword):
		return badRequest(c, "password does not meet requirements")
	case errors.Is(err, token.ErrNotFound):
		return badRequest(c, "invalid or expired token")
	case err != nil:
		slog.Error("password reset failed", "error", err)
		return internalError(c, "password reset failed")
	}

	// Resetting the password proves control of the mailbox, so the user
	// is signed in right away.
	if cookie, err := h.sessions.Create(user.ID); err == nil {
		c.SetCookie(cookie)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

// VerifyEmailRequest is the request body for email confirmation.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail consumes a confirmation token and marks the account verified.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.ConfirmEmail(c.Request().Context(), req.Token)
	switch {
	case errors.Is(err, token.ErrNotFound):
		return badRequest(c, "invalid or expired token")
	case err != nil:
		slog.Error("email verification failed", "error", err)
		return internalError(c, "email verification failed")
	}

	if cookie, err := h.sessions.Create(user.ID); err == nil {
		c.SetCookie(cookie)
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// ResendConfirmationRequest is the request body for re-sending the
// confirmation email.
type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendConfirmation reissues the confirmation token. The response does
// not reveal whether the account exists or is already verified.
func (h *AuthHandlers) ResendConfirmation(c echo.Context) error {
	var req ResendConfirmationRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.auth.ResendConfirmation(c.Request().Context(), req.Email); err != nil {
		slog.Error("resend confirmation failed", "error", err)
		return internalError(c, "resend confirmation failed")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "if the account needs verification, a new email has been sent",
	})
}

// ChangePasswordRequest is the request body for changing the password
// of the authenticated user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ChangePassword updates the password of the authenticated user.
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return unauthorized(c, "not authenticated")
	}

	var req ChangePasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return unauthorized(c, "current password is incorrect")
	case errors.Is(err, authsvc.ErrWeakPassword):
		return badRequest(c, "password does not meet requirements")
	case err != nil:
		slog.Error("password change failed", "error", err, "user_id", user.ID)
		return internalError(c, "password change failed")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
