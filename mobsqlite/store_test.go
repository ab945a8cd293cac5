// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// newTestStore opens an in-memory database with the full schema applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := EnsureSchema(context.Background(), store); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func strPtr(s string) *string { return &s }

func countRows(t *testing.T, store *Store, query string, args ...any) int64 {
	t.Helper()
	rows, err := store.Query(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("count query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("count query returned %d rows", len(rows))
	}
	for _, v := range rows[0] {
		switch n := v.(type) {
		case int64:
			return n
		}
	}
	t.Fatalf("count query returned no integer column")
	return 0
}

func TestNormalizeArgsTypedNilPointer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A typed-nil *string must bind as SQL NULL, not as a non-nil interface.
	var barcode *string
	err := store.Exec(ctx, `
		INSERT INTO products (sku, name, quantity, unitPrice, barcode, minStock, createdAt, updatedAt, ownerUserId)
		VALUES ('NA-1', 'NilArg', 0, 0, ?, 0, `+sqliteNow+`, `+sqliteNow+`, 1)`,
		barcode)
	if err != nil {
		t.Fatalf("insert with typed-nil arg: %v", err)
	}

	n := countRows(t, store,
		`SELECT COUNT(*) FROM products WHERE sku = 'NA-1' AND barcode IS NULL`)
	if n != 1 {
		t.Fatalf("expected barcode stored as NULL, got %d matching rows", n)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Exec(ctx, `
			INSERT INTO suppliers (name, ownerUserId, createdAt, updatedAt)
			VALUES ('Rollback Co', 1, `+sqliteNow+`, `+sqliteNow+`)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}

	n := countRows(t, store, `SELECT COUNT(*) FROM suppliers WHERE name = 'Rollback Co'`)
	if n != 0 {
		t.Fatalf("expected insert rolled back, found %d rows", n)
	}
}

func TestWithTxCommits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx *Tx) error {
		return tx.Exec(ctx, `
			INSERT INTO suppliers (name, ownerUserId, createdAt, updatedAt)
			VALUES ('Commit Co', 1, `+sqliteNow+`, `+sqliteNow+`)`)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	n := countRows(t, store, `SELECT COUNT(*) FROM suppliers WHERE name = 'Commit Co'`)
	if n != 1 {
		t.Fatalf("expected committed row, found %d", n)
	}
}
