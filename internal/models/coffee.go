// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package models

import "time"

// Coffee is one logged coffee experience, owned by a single user.
type Coffee struct { //nolint:govet // fieldalignment not critical for models
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Brand       string    `db:"brand" json:"brand"`
	Preparation string    `db:"preparation" json:"preparation"`
	Shots       int64     `db:"shots" json:"shots"`
	Flavor      string    `db:"flavor" json:"flavor"`
	Rating      int64     `db:"rating" json:"rating"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CoffeePick is a deduplicated (name, brand) pair used to pre-fill
// repeat entries.
type CoffeePick struct {
	Name  string `db:"name" json:"name"`
	Brand string `db:"brand" json:"brand"`
}
