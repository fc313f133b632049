// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package token implements single-use, time-limited tokens for password
// reset and email confirmation.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/brewlog/brewlog/internal/models"
	"codeberg.org/brewlog/brewlog/internal/repository"
)

const (
	// PlaintextLength is the number of random bytes in a token.
	PlaintextLength = 32
	// ResetTTL is how long password-reset tokens are valid.
	ResetTTL = 5 * time.Minute
	// ConfirmTTL is how long email-confirmation tokens are valid.
	ConfirmTTL = 24 * time.Hour
)

// ErrNotFound is returned when a token is absent or expired. The two
// states are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("token not found")

// Service issues, verifies and consumes tokens. Only the SHA256 hash of
// a token is stored; the plaintext exists solely in the email sent to the
// user.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// NewService creates a new token service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HashToken computes the SHA256 hash of a plaintext token.
func HashToken(plaintext string) string {
	hash := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(hash[:])
}

// Issue deletes any existing token of the given kind for the user and
// creates a fresh one. Returns the plaintext (for the email link) and the
// stored record.
func (s *Service) Issue(ctx context.Context, kind models.TokenKind, userID int64, ttl time.Duration) (string, *models.Token, error) {
	if err := s.repo.DeleteUserTokens(ctx, userID, kind); err != nil {
		return "", nil, fmt.Errorf("failed to delete previous tokens: %w", err)
	}

	bytes := make([]byte, PlaintextLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	plaintext := hex.EncodeToString(bytes)

	token := &models.Token{
		UserID:    userID,
		Kind:      kind,
		TokenHash: HashToken(plaintext),
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	if err := s.repo.CreateToken(ctx, token); err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}

	slog.Info("token_issued", "kind", kind, "user_id", userID, "expires_at", token.ExpiresAt)

	return plaintext, token, nil
}

// Verify looks up a token by its plaintext. Absent tokens return
// ErrNotFound. Expired tokens are deleted as a side effect and also
// return ErrNotFound. Otherwise the token and its owning user are
// returned.
func (s *Service) Verify(ctx context.Context, kind models.TokenKind, plaintext string) (*models.Token, *models.User, error) {
	token, err := s.repo.GetTokenByHash(ctx, kind, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if token.ExpiredAt(s.now()) {
		// Lazy cleanup: delete on detection, no background sweep.
		if delErr := s.repo.DeleteToken(ctx, token.ID); delErr != nil {
			slog.Error("token_expiry_cleanup_failed", "token_id", token.ID, "error", delErr)
		}
		slog.Info("token_expired", "kind", kind, "user_id", token.UserID)
		return nil, nil, ErrNotFound
	}

	user, err := s.repo.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load token owner: %w", err)
	}

	return token, user, nil
}

// Consume verifies a token, runs the caller's effect with the owning
// user, and deletes the token afterwards. The effect and the delete are
// not atomic; two concurrent consumptions of the same token can race.
// If the effect fails the token is left in place.
func (s *Service) Consume(ctx context.Context, kind models.TokenKind, plaintext string, effect func(ctx context.Context, user *models.User) error) (*models.User, error) {
	token, user, err := s.Verify(ctx, kind, plaintext)
	if err != nil {
		return nil, err
	}

	if err := effect(ctx, user); err != nil {
		return nil, err
	}

	if err := s.repo.DeleteToken(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("failed to delete consumed token: %w", err)
	}

	slog.Info("token_consumed", "kind", kind, "user_id", user.ID)

	return user, nil
}
