// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package models

import "time"

// User is an account in the coffee diary. EmailVerified gates login:
// unverified accounts get a distinct "needs verification" result.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID              int64      `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	DisplayName     string     `db:"display_name" json:"display_name"`
	AvatarURL       string     `db:"avatar_url" json:"avatar_url"`
	EmailVerified   int64      `db:"email_verified" json:"email_verified"`
	EmailVerifiedAt *time.Time `db:"email_verified_at" json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsVerified reports whether the user has confirmed their email address.
func (u *User) IsVerified() bool {
	return u.EmailVerified != 0
}
