// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func seedAllTables(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	addProduct(t, store, ProductInput{SKU: "R-1", Name: "Reset Me", Quantity: 1}, 1)
	if err := NewSupplierRepo(store).Add(ctx, SupplierInput{Name: "Reset Co"}, 1); err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	if err := NewCategoryRepo(store).Add(ctx, "Reset Cat", 1); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := NewLedgerRepo(store).Apply(ctx, StockChange{SKU: "R-1", Change: 2}, 1); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if _, err := NewNotificationRepo(store).AddOnce(ctx, strPtr("R-1"), NotifLowStock, "low", 1); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
}

func TestResetLocalTenantState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedAllTables(t, store)
	if err := store.Exec(ctx, `UPDATE sync_info SET lastSync = '2026-01-01T00:00:00.000Z' WHERE id = 1`); err != nil {
		t.Fatalf("set watermark: %v", err)
	}

	if err := ResetLocalTenantState(ctx, store); err != nil {
		t.Fatalf("reset: %v", err)
	}

	for _, table := range []string{"products", "suppliers", "categories", "stock_transactions", "notifications"} {
		if n := countRows(t, store, `SELECT COUNT(*) FROM `+table); n != 0 {
			t.Fatalf("%s not cleared: %d rows", table, n)
		}
	}

	rows, err := store.Query(ctx, `SELECT lastSync FROM sync_info WHERE id = 1`)
	if err != nil || len(rows) != 1 {
		t.Fatalf("sync_info row: rows=%d err=%v", len(rows), err)
	}
	if rows[0]["lastSync"] != nil {
		t.Fatalf("watermark not cleared: %v", rows[0]["lastSync"])
	}
}

func TestSyncAndResetSuccess(t *testing.T) {
	store := newTestStore(t)
	client := newTestSyncClient(t, store, &fakeServer{})
	ctx := context.Background()

	seedAllTables(t, store)

	if err := client.SyncAndReset(ctx, 1, 3, false); err != nil {
		t.Fatalf("sync-and-reset: %v", err)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM products`); n != 0 {
		t.Fatalf("local state not wiped after successful sync: %d rows", n)
	}
}

// When every attempt fails and the caller forbids discarding, local data
// survives for a later retry.
func TestSyncAndResetPreservesUnsyncedData(t *testing.T) {
	store := newTestStore(t)
	client := newTestSyncClient(t, store, &fakeServer{failUpload: true})
	ctx := context.Background()

	seedAllTables(t, store)

	err := client.SyncAndReset(ctx, 1, 2, false)
	if !errors.Is(err, ErrUnsyncedData) {
		t.Fatalf("expected ErrUnsyncedData, got %v", err)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM products`); n == 0 {
		t.Fatal("local data discarded without permission")
	}
}

func TestSyncAndResetDiscardOnFailure(t *testing.T) {
	store := newTestStore(t)
	client := newTestSyncClient(t, store, &fakeServer{failUpload: true})
	ctx := context.Background()

	seedAllTables(t, store)

	if err := client.SyncAndReset(ctx, 1, 2, true); err != nil {
		t.Fatalf("discard path should succeed: %v", err)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM products`); n != 0 {
		t.Fatalf("local state not wiped: %d rows", n)
	}
}
