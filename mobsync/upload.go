// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ProcessUpload applies a full-tenant product batch in one transaction.
// Each row is validated, its category and supplier names are resolved to
// per-organization rows (falling back to "Uncategorized"/"General" when
// absent), and the merge is newer-wins keyed by (sku, organization):
// an existing row is overwritten only when the incoming updatedAt is
// strictly newer. Any row failure rolls back the whole batch.
//
// Returns the number of rows that changed server state.
func (s *SyncService) ProcessUpload(ctx context.Context, actor Actor, rows []ProductRow) (int, error) {
	if actor.OrgID <= 0 {
		return 0, fmt.Errorf("%w: missing organization", ErrUnauthorized)
	}
	if s.config.MaxUploadBatchSize > 0 && len(rows) > s.config.MaxUploadBatchSize {
		return 0, fmt.Errorf("%w: batch of %d exceeds limit %d",
			ErrBadPayload, len(rows), s.config.MaxUploadBatchSize)
	}

	applied := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := range rows {
			changed, err := s.applyProductUpload(ctx, tx, actor, &rows[i])
			if err != nil {
				return fmt.Errorf("row %d (sku=%q): %w", i, rows[i].SKU, err)
			}
			if changed {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("product upload applied",
		"org", actor.OrgID, "user", actor.UserID, "device", actor.DeviceID,
		"received", len(rows), "applied", applied)
	return applied, nil
}

func (s *SyncService) applyProductUpload(ctx context.Context, tx pgx.Tx, actor Actor, row *ProductRow) (bool, error) {
	if err := row.Validate(); err != nil {
		return false, err
	}
	if row.OwnerID != 0 && row.OwnerID != actor.OrgID {
		return false, fmt.Errorf("%w: row belongs to another organization", ErrForbidden)
	}

	incomingAt := time.Now().UTC()
	if row.UpdatedAt != "" {
		t, err := ParseWireTime(row.UpdatedAt)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		incomingAt = t
	}

	categoryName := FallbackCategoryName
	if row.Category != nil && *row.Category != "" {
		categoryName = *row.Category
	}
	categoryID, err := s.resolveCategory(ctx, tx, actor.OrgID, categoryName)
	if err != nil {
		return false, err
	}

	supplierName := FallbackSupplierName
	if row.SupplierName != nil && *row.SupplierName != "" {
		supplierName = *row.SupplierName
	}
	supplierID, err := s.resolveSupplier(ctx, tx, actor.OrgID, supplierName)
	if err != nil {
		return false, err
	}

	var (
		existingID     int64
		existingExpiry *string
		existingAt     time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT id, expiry_date, updated_at FROM products
		 WHERE sku = $1 AND organization_id = $2`,
		row.SKU, actor.OrgID,
	).Scan(&existingID, &existingExpiry, &existingAt)

	switch {
	case err == pgx.ErrNoRows:
		if actor.Role == RoleStaff {
			return false, fmt.Errorf("%w: staff cannot create products", ErrForbidden)
		}
		minStock := int64(0)
		if row.MinStock != nil {
			minStock = *row.MinStock
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO products
			   (sku, name, category, category_id, quantity, unit_price,
			    supplier_name, supplier_id, expiry_date, barcode, min_stock,
			    organization_id, created_at, updated_at, server_changed_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13,now())`,
			row.SKU, row.Name, categoryName, categoryID, row.Quantity, row.UnitPrice,
			supplierName, supplierID, row.ExpiryDate, row.Barcode, minStock,
			actor.OrgID, incomingAt)
		if err != nil {
			return false, fmt.Errorf("failed to insert product: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("failed to look up product: %w", err)
	}

	// A nil expiry keeps the server value (COALESCE below), so only a
	// present-and-different value counts as a staff expiry change.
	if actor.Role == RoleStaff && row.ExpiryDate != nil && !sameOptionalString(row.ExpiryDate, existingExpiry) {
		return false, fmt.Errorf("%w: staff cannot change expiry dates", ErrForbidden)
	}

	// Newer-wins: only a strictly newer client row overwrites the server's.
	if !incomingAt.After(existingAt) {
		return false, nil
	}

	// updated_at keeps the client-claimed edit time for newer-wins;
	// server_changed_at is stamped on the server clock so delta downloads
	// never depend on a device clock.
	tag, err := tx.Exec(ctx,
		`UPDATE products SET
		   name = $1, category = $2, category_id = $3, quantity = $4,
		   unit_price = $5, supplier_name = $6, supplier_id = $7,
		   expiry_date = COALESCE($8, expiry_date),
		   barcode = COALESCE($9, barcode),
		   min_stock = COALESCE($10, min_stock),
		   updated_at = $11, server_changed_at = now()
		 WHERE id = $12`,
		row.Name, categoryName, categoryID, row.Quantity,
		row.UnitPrice, supplierName, supplierID,
		row.ExpiryDate, row.Barcode, row.MinStock,
		incomingAt, existingID)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ProcessSupplierUpload applies a bulk supplier upsert keyed by
// (name, organization), with the same newer-wins guard as products.
func (s *SyncService) ProcessSupplierUpload(ctx context.Context, actor Actor, rows []SupplierRow) (int, error) {
	if actor.OrgID <= 0 {
		return 0, fmt.Errorf("%w: missing organization", ErrUnauthorized)
	}
	if s.config.MaxUploadBatchSize > 0 && len(rows) > s.config.MaxUploadBatchSize {
		return 0, fmt.Errorf("%w: batch of %d exceeds limit %d",
			ErrBadPayload, len(rows), s.config.MaxUploadBatchSize)
	}

	applied := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := range rows {
			changed, err := s.applySupplierUpload(ctx, tx, actor, &rows[i])
			if err != nil {
				return fmt.Errorf("row %d (name=%q): %w", i, rows[i].Name, err)
			}
			if changed {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("supplier upload applied",
		"org", actor.OrgID, "user", actor.UserID,
		"received", len(rows), "applied", applied)
	return applied, nil
}

func (s *SyncService) applySupplierUpload(ctx context.Context, tx pgx.Tx, actor Actor, row *SupplierRow) (bool, error) {
	if err := row.Validate(); err != nil {
		return false, err
	}
	if row.OwnerID != 0 && row.OwnerID != actor.OrgID {
		return false, fmt.Errorf("%w: row belongs to another organization", ErrForbidden)
	}

	incomingAt := time.Now().UTC()
	if row.UpdatedAt != "" {
		t, err := ParseWireTime(row.UpdatedAt)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		incomingAt = t
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO suppliers
		   (name, phone, email, address, note, organization_id,
		    created_at, updated_at, server_changed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$7,now())
		 ON CONFLICT (name, organization_id) DO UPDATE SET
		   phone             = COALESCE(EXCLUDED.phone, suppliers.phone),
		   email             = COALESCE(EXCLUDED.email, suppliers.email),
		   address           = COALESCE(EXCLUDED.address, suppliers.address),
		   note              = COALESCE(EXCLUDED.note, suppliers.note),
		   updated_at        = EXCLUDED.updated_at,
		   server_changed_at = now()
		 WHERE EXCLUDED.updated_at > suppliers.updated_at`,
		row.Name, row.Phone, row.Email, row.Address, row.Note,
		actor.OrgID, incomingAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert supplier: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// resolveCategory returns the id of the named category for the organization,
// creating it when absent.
func (s *SyncService) resolveCategory(ctx context.Context, tx pgx.Tx, orgID int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO categories (name, organization_id)
		 VALUES ($1, $2)
		 ON CONFLICT (name, organization_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name, orgID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve category %q: %w", name, err)
	}
	return id, nil
}

// resolveSupplier returns the id of the named supplier for the organization,
// creating a bare row when absent.
func (s *SyncService) resolveSupplier(ctx context.Context, tx pgx.Tx, orgID int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO suppliers (name, organization_id)
		 VALUES ($1, $2)
		 ON CONFLICT (name, organization_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name, orgID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve supplier %q: %w", name, err)
	}
	return id, nil
}

func sameOptionalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
