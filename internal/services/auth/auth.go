// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package auth implements registration, login and the password-reset and
// email-confirmation flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"codeberg.org/brewlog/brewlog/internal/models"
	"codeberg.org/brewlog/brewlog/internal/repository"
	"codeberg.org/brewlog/brewlog/internal/services/email"
	"codeberg.org/brewlog/brewlog/internal/services/token"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is distinct from ErrInvalidCredentials so the
	// caller can offer a resend-confirmation path.
	ErrEmailNotVerified = errors.New("email address not verified")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrWeakPassword     = errors.New("password does not meet requirements")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo   *repository.Repository
	tokens *token.Service
	emails *email.Service
}

func NewService(repo *repository.Repository, tokens *token.Service, emails *email.Service) *Service {
	return &Service{repo: repo, tokens: tokens, emails: emails}
}

// RegisterParams holds the parameters for user registration.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new unverified user account, issues a confirmation
// token and sends the confirmation email. Email delivery is best effort;
// the account is created even if the send fails.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		DisplayName:  params.DisplayName,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", params.Email)

	s.issueConfirmation(ctx, user)

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates a user. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials; a correct password on an unverified
// account yields ErrEmailNotVerified. The returned user has its password
// hash stripped.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", emailAddr, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified() {
		slog.Warn("login_failed", "email", emailAddr, "reason", "email_not_verified")
		return nil, ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", emailAddr, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "email", emailAddr)

	user.PasswordHash = ""
	return user, nil
}

// RequestPasswordReset issues a reset token and mails it. The response
// is uniform whether or not the account exists, so callers cannot probe
// for registered addresses.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("password_reset_requested", "email", emailAddr, "known_account", false)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, _, err := s.tokens.Issue(ctx, models.TokenKindPasswordReset, user.ID, token.ResetTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if err := s.emails.SendPasswordReset(ctx, user.Email, plaintext); err != nil {
		// Keep the response uniform; the failure is visible in the logs only.
		slog.Error("password_reset_email_failed", "user_id", user.ID, "error", err)
	}

	slog.Info("password_reset_requested", "email", emailAddr, "known_account", true)
	return nil
}

// ResetPassword consumes a reset token and updates the password.
// Invalid, expired and unknown tokens are indistinguishable.
func (s *Service) ResetPassword(ctx context.Context, plaintext, newPassword string) (*models.User, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.tokens.Consume(ctx, models.TokenKindPasswordReset, plaintext,
		func(ctx context.Context, user *models.User) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			return s.repo.UpdateUserPassword(ctx, user.ID, string(hash))
		})
	if err != nil {
		return nil, err
	}

	slog.Info("password_reset_success", "user_id", user.ID)

	user.PasswordHash = ""
	return user, nil
}

// ConfirmEmail consumes a confirmation token and marks the account verified.
func (s *Service) ConfirmEmail(ctx context.Context, plaintext string) (*models.User, error) {
	user, err := s.tokens.Consume(ctx, models.TokenKindEmailConfirm, plaintext,
		func(ctx context.Context, user *models.User) error {
			return s.repo.MarkEmailVerified(ctx, user.ID)
		})
	if err != nil {
		return nil, err
	}

	slog.Info("email_confirmed", "user_id", user.ID)

	user.PasswordHash = ""
	user.EmailVerified = 1
	return user, nil
}

// ResendConfirmation reissues the confirmation token for an unverified
// account. The response is uniform for unknown and already verified
// addresses.
func (s *Service) ResendConfirmation(ctx context.Context, emailAddr string) error {
	user, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsVerified() {
		return nil
	}

	s.issueConfirmation(ctx, user)
	return nil
}

// ChangePassword changes a user's password when they know their current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "user_id", userID)
	return nil
}

// issueConfirmation creates and mails a confirmation token, best effort.
func (s *Service) issueConfirmation(ctx context.Context, user *models.User) {
	plaintext, _, err := s.tokens.Issue(ctx, models.TokenKindEmailConfirm, user.ID, token.ConfirmTTL)
	if err != nil {
		slog.Error("confirmation_token_failed", "user_id", user.ID, "error", err)
		return
	}

	if err := s.emails.SendConfirmation(ctx, user.Email, plaintext); err != nil {
		slog.Error("confirmation_email_failed", "user_id", user.ID, "error", err)
	}
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	numeric := true
	for _, r := range password {
		if r < '0' || r > '9' {
			numeric = false
			break
		}
	}
	if numeric {
		return ErrWeakPassword
	}

	return nil
}
