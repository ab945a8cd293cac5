// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"fmt"
	"time"
)

// ProcessDownload returns the organization's products changed since the
// given watermark, ordered oldest-first so clients can apply rows in the
// order they changed. A nil since returns the full tenant data set.
// The filter runs on server_changed_at, the server-stamped apply time, so
// a device with a lagging clock can never make its edits invisible to
// other devices' delta pulls.
func (s *SyncService) ProcessDownload(ctx context.Context, actor Actor, since *time.Time) ([]ProductRow, error) {
	if actor.OrgID <= 0 {
		return nil, fmt.Errorf("%w: missing organization", ErrUnauthorized)
	}

	query := `SELECT id, sku, name, category, category_id, quantity, unit_price,
	                 supplier_name, supplier_id, expiry_date, barcode, min_stock,
	                 organization_id, created_at, updated_at
	          FROM products WHERE organization_id = $1`
	args := []any{actor.OrgID}
	if since != nil {
		query += ` AND server_changed_at > $2`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY server_changed_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := make([]ProductRow, 0)
	for rows.Next() {
		var (
			r                    ProductRow
			id, minStock         int64
			createdAt, updatedAt time.Time
		)
		err := rows.Scan(&id, &r.SKU, &r.Name, &r.Category, &r.CategoryID,
			&r.Quantity, &r.UnitPrice, &r.SupplierName, &r.SupplierID,
			&r.ExpiryDate, &r.Barcode, &minStock, &r.OwnerID,
			&createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		r.ID = &id
		r.MinStock = &minStock
		r.CreatedAt = FormatWireTime(createdAt)
		r.UpdatedAt = FormatWireTime(updatedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	s.logger.Debug("product download served",
		"org", actor.OrgID, "since", since, "rows", len(out))
	return out, nil
}

// ProcessSupplierDelta returns the organization's suppliers changed since
// the given watermark, ordered oldest-first. A nil since returns all.
func (s *SyncService) ProcessSupplierDelta(ctx context.Context, actor Actor, since *time.Time) ([]SupplierRow, error) {
	if actor.OrgID <= 0 {
		return nil, fmt.Errorf("%w: missing organization", ErrUnauthorized)
	}

	query := `SELECT id, name, phone, email, address, note,
	                 organization_id, created_at, updated_at
	          FROM suppliers WHERE organization_id = $1`
	args := []any{actor.OrgID}
	if since != nil {
		query += ` AND server_changed_at > $2`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY server_changed_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	out := make([]SupplierRow, 0)
	for rows.Next() {
		var (
			r                    SupplierRow
			id                   int64
			createdAt, updatedAt time.Time
		)
		err := rows.Scan(&id, &r.Name, &r.Phone, &r.Email, &r.Address, &r.Note,
			&r.OwnerID, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		r.ID = &id
		r.CreatedAt = FormatWireTime(createdAt)
		r.UpdatedAt = FormatWireTime(updatedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read suppliers: %w", err)
	}

	s.logger.Debug("supplier delta served",
		"org", actor.OrgID, "since", since, "rows", len(out))
	return out, nil
}
