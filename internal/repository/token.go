// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/brewlog/brewlog/internal/models"
)

// CreateToken inserts a new single-use token and fills in its ID.
func (r *Repository) CreateToken(ctx context.Context, token *models.Token) error {
	token.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (user_id, kind, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		token.UserID, token.Kind, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return err
	}

	token.ID, err = res.LastInsertId()
	return err
}

// GetTokenByHash retrieves a token of the given kind by its hash.
func (r *Repository) GetTokenByHash(ctx context.Context, kind models.TokenKind, tokenHash string) (*models.Token, error) {
	var token models.Token
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM tokens WHERE kind = ? AND token_hash = ?`, kind, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// DeleteToken deletes a token by ID.
func (r *Repository) DeleteToken(ctx context.Context, tokenID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, tokenID)
	return err
}

// DeleteUserTokens deletes all tokens of one kind for a user.
func (r *Repository) DeleteUserTokens(ctx context.Context, userID int64, kind models.TokenKind) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ? AND kind = ?`, userID, kind)
	return err
}

// DeleteExpiredTokens deletes all tokens that expired before the given instant.
func (r *Repository) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, now)
	return err
}
