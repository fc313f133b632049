// Copyright 2025 The Brewlog Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/brewlog/brewlog/internal/models"
)

// DefaultPerPage is used when a caller requests a non-positive page size.
const DefaultPerPage = 10

// Pagination describes one page of a paginated result set.
type Pagination struct { //nolint:govet // fieldalignment not critical
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// CreateCoffee inserts a new coffee entry and fills in its ID and timestamps.
func (r *Repository) CreateCoffee(ctx context.Context, coffee *models.Coffee) error {
	now := time.Now().UTC()
	coffee.CreatedAt = now
	coffee.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO coffees (user_id, name, brand, preparation, shots, flavor, rating, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		coffee.UserID, coffee.Name, coffee.Brand, coffee.Preparation, coffee.Shots,
		coffee.Flavor, coffee.Rating, coffee.Description, coffee.CreatedAt, coffee.UpdatedAt)
	if err != nil {
		return err
	}

	coffee.ID, err = res.LastInsertId()
	return err
}

// GetCoffee retrieves a coffee entry scoped by its owning user.
func (r *Repository) GetCoffee(ctx context.Context, userID, coffeeID int64) (*models.Coffee, error) {
	var coffee models.Coffee
	err := r.db.GetContext(ctx, &coffee,
		`SELECT * FROM coffees WHERE id = ? AND user_id = ?`, coffeeID, userID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &coffee, nil
}

// UpdateCoffee updates a coffee entry scoped by its owning user.
// Returns ErrNotFound if the entry does not exist or belongs to another user.
func (r *Repository) UpdateCoffee(ctx context.Context, coffee *models.Coffee) error {
	coffee.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE coffees SET name = ?, brand = ?, preparation = ?, shots = ?, flavor = ?, rating = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		coffee.Name, coffee.Brand, coffee.Preparation, coffee.Shots, coffee.Flavor,
		coffee.Rating, coffee.Description, coffee.UpdatedAt, coffee.ID, coffee.UserID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCoffee deletes a coffee entry scoped by its owning user.
// Returns ErrNotFound if the entry does not exist or belongs to another user.
func (r *Repository) DeleteCoffee(ctx context.Context, userID, coffeeID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM coffees WHERE id = ? AND user_id = ?`, coffeeID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCoffees returns all entries for a user ordered by creation time descending.
func (r *Repository) ListCoffees(ctx context.Context, userID int64) ([]models.Coffee, error) {
	coffees := []models.Coffee{}
	err := r.db.SelectContext(ctx, &coffees,
		`SELECT * FROM coffees WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return coffees, nil
}

// ListCoffeesPaginated returns one page of entries ordered by creation time
// descending, plus the computed pagination block. Count and fetch run in a
// single transaction so the totals stay consistent with the fetched page
// under concurrent writes.
func (r *Repository) ListCoffeesPaginated(ctx context.Context, userID int64, page, perPage int) ([]models.Coffee, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	if err := tx.GetContext(ctx, &total,
		`SELECT count(*) FROM coffees WHERE user_id = ?`, userID); err != nil {
		return nil, Pagination{}, err
	}

	coffees := []models.Coffee{}
	offset := (page - 1) * perPage
	if err := tx.SelectContext(ctx, &coffees,
		`SELECT * FROM coffees WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, perPage, offset); err != nil {
		return nil, Pagination{}, err
	}

	if err := tx.Commit(); err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	return coffees, Pagination{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// DistinctCoffeeNames returns deduplicated (name, brand) pairs for a user,
// ordered alphabetically.
func (r *Repository) DistinctCoffeeNames(ctx context.Context, userID int64) ([]models.CoffeePick, error) {
	picks := []models.CoffeePick{}
	err := r.db.SelectContext(ctx, &picks,
		`SELECT DISTINCT name, brand FROM coffees WHERE user_id = ? ORDER BY name, brand`, userID)
	if err != nil {
		return nil, err
	}
	return picks, nil
}
