// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
	"strings"
)

// ProductRepo provides tenant-scoped CRUD over the local products table.
// Every method takes the owning-tenant id explicitly; nothing is read from
// ambient state.
type ProductRepo struct {
	store *Store
}

// NewProductRepo creates a product repository over the given store.
func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// ProductInput carries the fields accepted when creating a product.
type ProductInput struct {
	SKU          string
	Name         string
	Category     *string
	Quantity     int64
	UnitPrice    float64
	SupplierName *string
	ExpiryDate   *string
	Barcode      *string
	MinStock     int64
}

// ProductPatch carries optional fields for an update. Nil numeric fields keep
// the stored value; nil string fields clear the column (matching the edit
// screen semantics, where empty inputs mean "no value").
type ProductPatch struct {
	Name         *string
	Category     *string
	Quantity     *int64
	UnitPrice    *float64
	SupplierName *string
	ExpiryDate   *string
	Barcode      *string
	MinStock     *int64
}

func trimOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if in.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice must be >= 0", ErrValidation)
	}
	if in.MinStock < 0 {
		return fmt.Errorf("%w: minStock must be >= 0", ErrValidation)
	}
	if d := trimOrNil(in.ExpiryDate); d != nil {
		if _, err := parseExpiryDate(*d); err != nil {
			return fmt.Errorf("%w: expiryDate %q is not a valid date", ErrValidation, *d)
		}
	}
	return nil
}

// Add inserts a new product for the tenant. The duplicate-key pre-check runs
// before the insert so callers get an actionable message instead of a raw
// constraint error.
func (r *ProductRepo) Add(ctx context.Context, in ProductInput, ownerID int64) error {
	if err := in.validate(); err != nil {
		return err
	}
	sku := strings.TrimSpace(in.SKU)

	dup, err := r.store.Query(ctx,
		`SELECT id FROM products WHERE sku = ? AND ownerUserId = ? LIMIT 1`, sku, ownerID)
	if err != nil {
		return err
	}
	if len(dup) > 0 {
		return fmt.Errorf("%w: a product with SKU %q already exists", ErrDuplicateKey, sku)
	}
	if barcode := trimOrNil(in.Barcode); barcode != nil {
		dup, err := r.store.Query(ctx,
			`SELECT id FROM products WHERE barcode = ? AND ownerUserId = ? LIMIT 1`, *barcode, ownerID)
		if err != nil {
			return err
		}
		if len(dup) > 0 {
			return fmt.Errorf("%w: a product with barcode %q already exists", ErrDuplicateKey, *barcode)
		}
	}

	return r.store.Exec(ctx, `
		INSERT INTO products
			(sku, name, category, quantity, unitPrice, supplierName, expiryDate, barcode, minStock, ownerUserId, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, `+sqliteNow+`, `+sqliteNow+`)`,
		sku,
		strings.TrimSpace(in.Name),
		trimOrNil(in.Category),
		in.Quantity,
		in.UnitPrice,
		trimOrNil(in.SupplierName),
		trimOrNil(in.ExpiryDate),
		trimOrNil(in.Barcode),
		in.MinStock,
		ownerID,
	)
}

// Update mutates an existing product and bumps its revision stamp.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch ProductPatch, ownerID int64) error {
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if patch.UnitPrice != nil && *patch.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice must be >= 0", ErrValidation)
	}
	if d := trimOrNil(patch.ExpiryDate); d != nil {
		if _, err := parseExpiryDate(*d); err != nil {
			return fmt.Errorf("%w: expiryDate %q is not a valid date", ErrValidation, *d)
		}
	}

	n, err := r.store.ExecAffecting(ctx, `
		UPDATE products SET
			name = COALESCE(?, name),
			category = ?,
			quantity = COALESCE(?, quantity),
			unitPrice = COALESCE(?, unitPrice),
			supplierName = ?,
			expiryDate = ?,
			barcode = ?,
			minStock = COALESCE(?, minStock),
			updatedAt = `+sqliteNow+`
		WHERE id = ? AND ownerUserId = ?`,
		trimOrNil(patch.Name),
		trimOrNil(patch.Category),
		patch.Quantity,
		patch.UnitPrice,
		trimOrNil(patch.SupplierName),
		trimOrNil(patch.ExpiryDate),
		trimOrNil(patch.Barcode),
		patch.MinStock,
		id,
		ownerID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}

// List returns the tenant's products, newest first.
func (r *ProductRepo) List(ctx context.Context, ownerID int64) ([]Product, error) {
	rows, err := r.store.Query(ctx,
		`SELECT * FROM products WHERE ownerUserId = ? ORDER BY createdAt DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRow(row))
	}
	return products, nil
}

// Delete removes a product. Deletions are local only; they are not
// propagated through sync (no tombstones), which is a known gap.
func (r *ProductRepo) Delete(ctx context.Context, id, ownerID int64) error {
	n, err := r.store.ExecAffecting(ctx,
		`DELETE FROM products WHERE id = ? AND ownerUserId = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}

// FindByBarcode looks up a product by barcode within the tenant.
func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string, ownerID int64) (*Product, error) {
	rows, err := r.store.Query(ctx,
		`SELECT * FROM products WHERE barcode = ? AND ownerUserId = ? LIMIT 1`, barcode, ownerID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: barcode %q", ErrNotFound, barcode)
	}
	p := productFromRow(rows[0])
	return &p, nil
}

// ChangeStockByID increments the product quantity by a signed delta and
// appends the matching ledger row as one atomic unit. A failure anywhere
// rolls both writes back; quantity-without-ledger (or the reverse) is never
// observable. actorID identifies who made the change; nil records an
// anonymous movement.
func (r *ProductRepo) ChangeStockByID(ctx context.Context, productID, delta, ownerID int64, actorID *string, reason string) error {
	if reason == "" {
		reason = "scan-adjust"
	}
	return r.store.WithTx(ctx, func(tx *Tx) error {
		n, err := tx.ExecAffecting(ctx, `
			UPDATE products
			SET quantity = quantity + ?, updatedAt = `+sqliteNow+`
			WHERE id = ? AND ownerUserId = ?`,
			delta, productID, ownerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return tx.Exec(ctx, `
			INSERT INTO stock_transactions (sku, change, reason, userId, createdAt, ownerUserId)
			SELECT sku, ?, ?, ?, `+sqliteNow+`, ?
			FROM products WHERE id = ?`,
			delta, reason, actorID, ownerID, productID)
	})
}
