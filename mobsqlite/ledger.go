// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
	"strings"
)

// LedgerRepo provides access to the append-only stock transaction log.
// Ledger rows are never updated or merged by sync, only appended.
type LedgerRepo struct {
	store *Store
}

// NewLedgerRepo creates a ledger repository over the given store.
func NewLedgerRepo(store *Store) *LedgerRepo {
	return &LedgerRepo{store: store}
}

// StockChange describes one signed inventory movement, addressed by SKU.
type StockChange struct {
	SKU     string
	Change  int64
	Reason  string
	ActorID *string
}

// Apply writes the ledger row and the matching quantity delta in one atomic
// unit, keeping the invariant that ledger deltas sum to the current quantity.
func (r *LedgerRepo) Apply(ctx context.Context, ch StockChange, ownerID int64) error {
	sku := strings.TrimSpace(ch.SKU)
	if sku == "" {
		return fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if ch.Reason == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	return r.store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Exec(ctx, `
			INSERT INTO stock_transactions (sku, change, reason, userId, ownerUserId, createdAt)
			VALUES (?, ?, ?, ?, ?, `+sqliteNow+`)`,
			sku, ch.Change, ch.Reason, ch.ActorID, ownerID); err != nil {
			return err
		}
		n, err := tx.ExecAffecting(ctx, `
			UPDATE products
			SET quantity = quantity + ?, updatedAt = `+sqliteNow+`
			WHERE sku = ? AND ownerUserId = ?`,
			ch.Change, sku, ownerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: product with sku %q", ErrNotFound, sku)
		}
		return nil
	})
}

// List returns the tenant's ledger, newest first.
func (r *LedgerRepo) List(ctx context.Context, ownerID int64) ([]StockTransaction, error) {
	rows, err := r.store.Query(ctx,
		`SELECT * FROM stock_transactions WHERE ownerUserId = ? ORDER BY createdAt DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	txs := make([]StockTransaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, stockTransactionFromRow(row))
	}
	return txs, nil
}

// SumForSKU totals the signed deltas recorded for a SKU. Applied to a base
// of zero this must equal the product's current quantity.
func (r *LedgerRepo) SumForSKU(ctx context.Context, sku string, ownerID int64) (int64, error) {
	rows, err := r.store.Query(ctx, `
		SELECT COALESCE(SUM(change), 0) AS total
		FROM stock_transactions
		WHERE sku = ? AND ownerUserId = ?`, sku, ownerID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rowInt64(rows[0], "total"), nil
}
