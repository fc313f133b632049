// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

// Package session manages signed cookie sessions holding the user id.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"

	"codeberg.org/brewlog/brewlog/internal/config"
)

// ErrNoSession is returned when the request carries no valid session cookie.
var ErrNoSession = errors.New("no valid session")

// sessionPayload is what gets encoded into the cookie.
type sessionPayload struct {
	UserID int64
}

// Manager creates and validates session cookies.
type Manager struct {
	sc         *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a session manager. The hash key must be a
// hex-encoded 32-byte value; the optional block key enables encryption
// of the cookie payload.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := hex.DecodeString(cfg.HashKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	if len(hashKey) != 32 {
		return nil, fmt.Errorf("session hash key must be 32 bytes, got %d", len(hashKey))
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = hex.DecodeString(cfg.BlockKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session block key: %w", err)
		}
		if len(blockKey) != 32 {
			return nil, fmt.Errorf("session block key must be 32 bytes, got %d", len(blockKey))
		}
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(cfg.MaxAge)

	return &Manager{
		sc:         sc,
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     secure,
	}, nil
}

// Create returns a session cookie for the given user.
func (m *Manager) Create(userID int64) (*http.Cookie, error) {
	encoded, err := m.sc.Encode(m.cookieName, sessionPayload{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse extracts the user id from the request's session cookie.
// Returns ErrNoSession for missing, tampered or expired cookies.
func (m *Manager) Parse(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return 0, ErrNoSession
	}

	var payload sessionPayload
	if err := m.sc.Decode(m.cookieName, cookie.Value, &payload); err != nil {
		return 0, ErrNoSession
	}
	if payload.UserID == 0 {
		return 0, ErrNoSession
	}

	return payload.UserID, nil
}

// Clear returns an expired cookie that removes the session.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
