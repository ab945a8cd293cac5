// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
	"strings"
)

// SupplierRepo provides tenant-scoped CRUD over the local suppliers table.
type SupplierRepo struct {
	store *Store
}

// NewSupplierRepo creates a supplier repository over the given store.
func NewSupplierRepo(store *Store) *SupplierRepo {
	return &SupplierRepo{store: store}
}

// SupplierInput carries the fields accepted when creating a supplier.
type SupplierInput struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
	Note    *string
}

// Add inserts a new supplier. Name is unique within the tenant; the
// pre-check runs before the insert.
func (r *SupplierRepo) Add(ctx context.Context, in SupplierInput, ownerID int64) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	dup, err := r.store.Query(ctx,
		`SELECT id FROM suppliers WHERE name = ? AND ownerUserId = ? LIMIT 1`, name, ownerID)
	if err != nil {
		return err
	}
	if len(dup) > 0 {
		return fmt.Errorf("%w: supplier %q already exists", ErrDuplicateKey, name)
	}

	return r.store.Exec(ctx, `
		INSERT INTO suppliers
			(name, phone, email, address, note, ownerUserId, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, `+sqliteNow+`, `+sqliteNow+`)`,
		name,
		trimOrNil(in.Phone),
		trimOrNil(in.Email),
		trimOrNil(in.Address),
		trimOrNil(in.Note),
		ownerID,
	)
}

// List returns the tenant's suppliers ordered by name.
func (r *SupplierRepo) List(ctx context.Context, ownerID int64) ([]Supplier, error) {
	rows, err := r.store.Query(ctx,
		`SELECT * FROM suppliers WHERE ownerUserId = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	suppliers := make([]Supplier, 0, len(rows))
	for _, row := range rows {
		suppliers = append(suppliers, supplierFromRow(row))
	}
	return suppliers, nil
}

// SupplierPatch carries optional fields for an update; nil Name keeps the
// stored name, other nil fields clear the column.
type SupplierPatch struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	Note    *string
}

// Update mutates an existing supplier. A name change revalidates per-tenant
// uniqueness against the other rows.
func (r *SupplierRepo) Update(ctx context.Context, id int64, patch SupplierPatch, ownerID int64) error {
	if name := trimOrNil(patch.Name); name != nil {
		dup, err := r.store.Query(ctx,
			`SELECT id FROM suppliers WHERE name = ? AND ownerUserId = ? AND id <> ? LIMIT 1`,
			*name, ownerID, id)
		if err != nil {
			return err
		}
		if len(dup) > 0 {
			return fmt.Errorf("%w: supplier %q already exists", ErrDuplicateKey, *name)
		}
	}

	n, err := r.store.ExecAffecting(ctx, `
		UPDATE suppliers SET
			name = COALESCE(?, name),
			phone = ?,
			email = ?,
			address = ?,
			note = ?,
			updatedAt = `+sqliteNow+`
		WHERE id = ? AND ownerUserId = ?`,
		trimOrNil(patch.Name),
		trimOrNil(patch.Phone),
		trimOrNil(patch.Email),
		trimOrNil(patch.Address),
		trimOrNil(patch.Note),
		id,
		ownerID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes a supplier for the tenant.
func (r *SupplierRepo) Delete(ctx context.Context, id, ownerID int64) error {
	n, err := r.store.ExecAffecting(ctx,
		`DELETE FROM suppliers WHERE id = ? AND ownerUserId = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	return nil
}
