// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/brewlog/brewlog/internal/config"
	"codeberg.org/brewlog/brewlog/internal/services/session"
)

// validHashKey is a valid 32-byte hex-encoded key for testing
const validHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// validBlockKey is a valid 32-byte hex-encoded key for encryption testing
const validBlockKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"

func newTestConfig() *config.SessionConfig {
	return &config.SessionConfig{
		CookieName: "_test_session",
		MaxAge:     3600, // 1 hour
		HashKey:    validHashKey,
	}
}

func TestNewManager(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), false)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_WithBlockKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.BlockKey = validBlockKey

	mgr, err := session.NewManager(cfg, true)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_InvalidHashKey_NotHex(t *testing.T) {
	cfg := newTestConfig()
	cfg.HashKey = "not-hex-encoded"

	_, err := session.NewManager(cfg, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session hash key")
}

func TestNewManager_InvalidHashKey_WrongLength(t *testing.T) {
	cfg := newTestConfig()
	cfg.HashKey = "0123456789abcdef" // only 8 bytes

	_, err := session.NewManager(cfg, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestNewManager_InvalidBlockKey_NotHex(t *testing.T) {
	cfg := newTestConfig()
	cfg.BlockKey = "not-hex-encoded"

	_, err := session.NewManager(cfg, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session block key")
}

func TestCreateAndParse(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), false)
	require.NoError(t, err)

	cookie, err := mgr.Create(42)
	require.NoError(t, err)
	assert.Equal(t, "_test_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	userID, err := mgr.Parse(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParse_NoCookie(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err = mgr.Parse(req)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestParse_TamperedCookie(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), false)
	require.NoError(t, err)

	cookie, err := mgr.Create(42)
	require.NoError(t, err)
	cookie.Value += "tampered"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err = mgr.Parse(req)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestParse_DifferentKeys(t *testing.T) {
	mgr1, err := session.NewManager(newTestConfig(), false)
	require.NoError(t, err)

	otherCfg := newTestConfig()
	otherCfg.HashKey = validBlockKey // different key, same format
	mgr2, err := session.NewManager(otherCfg, false)
	require.NoError(t, err)

	cookie, err := mgr1.Create(42)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err = mgr2.Parse(req)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestClear(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), true)
	require.NoError(t, err)

	cookie := mgr.Clear()

	assert.Equal(t, "_test_session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.True(t, cookie.Secure)
}
