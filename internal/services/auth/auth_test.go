// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/brewlog/brewlog/internal/repository"
	"codeberg.org/brewlog/brewlog/internal/services/auth"
	"codeberg.org/brewlog/brewlog/internal/services/email"
	"codeberg.org/brewlog/brewlog/internal/services/token"
	"codeberg.org/brewlog/brewlog/internal/testutil"
)

type recordingSender struct {
	messages []email.Message
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

// tokenFromMessage extracts the token query parameter from an email link.
func tokenFromMessage(t *testing.T, msg email.Message) string {
	t.Helper()
	_, after, found := strings.Cut(msg.Text, "token=")
	require.True(t, found, "email should contain a token link: %q", msg.Text)
	tok, _, _ := strings.Cut(after, "\n")
	return strings.TrimSpace(tok)
}

func newTestService(t *testing.T) (*auth.Service, *repository.Repository, *recordingSender) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	sender := &recordingSender{}
	emails := email.NewServiceWithSender(sender, "http://localhost:8080")
	svc := auth.NewService(repo, token.NewService(repo), emails)
	return svc, repo, sender
}

func TestRegister(t *testing.T) {
	svc, repo, sender := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, auth.RegisterParams{
		Email:       "new@example.com",
		Password:    "correct horse battery",
		DisplayName: "New User",
	})

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsVerified())
	assert.Empty(t, user.PasswordHash)

	// A confirmation email went out with a token link.
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "new@example.com", sender.messages[0].To)
	assert.Contains(t, sender.messages[0].Text, "/auth/verify-email?token=")

	// The stored hash is bcrypt, not the plaintext.
	stored, err := repo.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), auth.RegisterParams{
		Email:    "not-an-email",
		Password: "correct horse battery",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidEmail)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "123456789012"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "dup@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "dup@example.com", Password: "correct horse battery"})
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	// Confirm the email so login is allowed.
	_, err = svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))
	require.NoError(t, err)

	user, err := svc.Login(ctx, "user@example.com", "correct horse battery")

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	_, err = svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "user@example.com", "wrong password entirely")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	// Correct credentials, unverified account: a distinct result, not
	// plain success or plain failure.
	_, err = svc.Login(ctx, "user@example.com", "correct horse battery")

	assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRequestPasswordReset_UnknownEmailIsUniform(t *testing.T) {
	svc, _, sender := newTestService(t)

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, sender.messages)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	_, err = svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "user@example.com"))
	require.Len(t, sender.messages, 2)
	resetToken := tokenFromMessage(t, sender.messages[1])

	user, err := svc.ResetPassword(ctx, resetToken, "a brand new password")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	// Old password no longer works, new one does.
	_, err = svc.Login(ctx, "user@example.com", "correct horse battery")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "user@example.com", "a brand new password")
	assert.NoError(t, err)

	// The token was single use.
	_, err = svc.ResetPassword(ctx, resetToken, "yet another password")
	assert.ErrorIs(t, err, token.ErrNotFound)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sender := &recordingSender{}
	emails := email.NewServiceWithSender(sender, "http://localhost:8080")

	now := time.Now().UTC()
	clock := now
	tokens := token.NewService(repo).WithClock(func() time.Time { return clock })
	svc := auth.NewService(repo, tokens, emails)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "user@example.com"))
	resetToken := tokenFromMessage(t, sender.messages[len(sender.messages)-1])

	// Wait past the 5 minute expiry on the simulated clock.
	clock = now.Add(token.ResetTTL + time.Minute)

	_, err = svc.ResetPassword(ctx, resetToken, "a brand new password")
	assert.ErrorIs(t, err, token.ErrNotFound)
}

func TestResetPassword_WeakPasswordKeepsToken(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "user@example.com"))
	resetToken := tokenFromMessage(t, sender.messages[len(sender.messages)-1])

	_, err = svc.ResetPassword(ctx, resetToken, "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	// The token survives a rejected password and can be used again.
	_, err = svc.ResetPassword(ctx, resetToken, "a brand new password")
	assert.NoError(t, err)
}

func TestConfirmEmail(t *testing.T) {
	svc, repo, sender := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	user, err := svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))

	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	stored, err := repo.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified())
	assert.NotNil(t, stored.EmailVerifiedAt)
}

func TestConfirmEmail_InvalidToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ConfirmEmail(context.Background(), "bogus-token")

	assert.ErrorIs(t, err, token.ErrNotFound)
}

func TestResendConfirmation(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	firstToken := tokenFromMessage(t, sender.messages[0])

	require.NoError(t, svc.ResendConfirmation(ctx, "user@example.com"))
	require.Len(t, sender.messages, 2)
	secondToken := tokenFromMessage(t, sender.messages[1])

	// Reissuing invalidated the first token.
	_, err = svc.ConfirmEmail(ctx, firstToken)
	assert.ErrorIs(t, err, token.ErrNotFound)

	_, err = svc.ConfirmEmail(ctx, secondToken)
	assert.NoError(t, err)
}

func TestResendConfirmation_UniformForUnknownAndVerified(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ResendConfirmation(ctx, "nobody@example.com"))
	assert.Empty(t, sender.messages)

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	_, err = svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))
	require.NoError(t, err)

	sent := len(sender.messages)
	require.NoError(t, svc.ResendConfirmation(ctx, "user@example.com"))
	assert.Len(t, sender.messages, sent) // no new mail for verified accounts
}

func TestChangePassword(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	_, err = svc.ConfirmEmail(ctx, tokenFromMessage(t, sender.messages[0]))
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, registered.ID, "correct horse battery", "a brand new password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "user@example.com", "a brand new password")
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{Email: "user@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, registered.ID, "wrong current", "a brand new password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
