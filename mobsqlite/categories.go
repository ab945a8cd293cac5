// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
	"strings"
)

// CategoryRepo provides tenant-scoped access to the local categories table.
type CategoryRepo struct {
	store *Store
}

// NewCategoryRepo creates a category repository over the given store.
func NewCategoryRepo(store *Store) *CategoryRepo {
	return &CategoryRepo{store: store}
}

// Add inserts a new category; name is unique within the tenant.
func (r *CategoryRepo) Add(ctx context.Context, name string, ownerID int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	dup, err := r.store.Query(ctx,
		`SELECT id FROM categories WHERE name = ? AND ownerUserId = ? LIMIT 1`, name, ownerID)
	if err != nil {
		return err
	}
	if len(dup) > 0 {
		return fmt.Errorf("%w: category %q already exists", ErrDuplicateKey, name)
	}
	return r.store.Exec(ctx, `
		INSERT INTO categories (name, ownerUserId, createdAt, updatedAt)
		VALUES (?, ?, `+sqliteNow+`, `+sqliteNow+`)`,
		name, ownerID)
}

// ResolveByName returns the id of the named category for the tenant,
// creating it when absent. Used when a caller supplies free text instead of
// an id.
func (r *CategoryRepo) ResolveByName(ctx context.Context, name string, ownerID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	rows, err := r.store.Query(ctx,
		`SELECT id FROM categories WHERE name = ? AND ownerUserId = ? LIMIT 1`, name, ownerID)
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		return rowInt64(rows[0], "id"), nil
	}
	err = r.store.Exec(ctx, `
		INSERT INTO categories (name, ownerUserId, createdAt, updatedAt)
		VALUES (?, ?, `+sqliteNow+`, `+sqliteNow+`)
		ON CONFLICT(name, ownerUserId) DO NOTHING`,
		name, ownerID)
	if err != nil {
		return 0, err
	}
	rows, err = r.store.Query(ctx,
		`SELECT id FROM categories WHERE name = ? AND ownerUserId = ? LIMIT 1`, name, ownerID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("category %q vanished after upsert", name)
	}
	return rowInt64(rows[0], "id"), nil
}

// List returns the tenant's categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context, ownerID int64) ([]Category, error) {
	rows, err := r.store.Query(ctx,
		`SELECT * FROM categories WHERE ownerUserId = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, categoryFromRow(row))
	}
	return categories, nil
}

// Delete removes a category for the tenant. Products keep their denormalized
// category name.
func (r *CategoryRepo) Delete(ctx context.Context, id, ownerID int64) error {
	n, err := r.store.ExecAffecting(ctx,
		`DELETE FROM categories WHERE id = ? AND ownerUserId = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return nil
}
