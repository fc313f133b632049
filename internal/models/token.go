// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package models

import "time"

// TokenKind distinguishes the two single-use token flows.
type TokenKind string

const (
	TokenKindPasswordReset TokenKind = "password_reset"
	TokenKindEmailConfirm  TokenKind = "email_confirm"
)

// Token stores a hashed single-use credential for password reset or
// email confirmation. The plaintext is never persisted, only its
// SHA256 hash. At most one live token per kind per user.
type Token struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Kind      TokenKind `db:"kind" json:"kind"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExpiredAt reports whether the token has expired at the given instant.
// A token is valid up to and including its expiry timestamp.
func (t *Token) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
