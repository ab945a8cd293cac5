// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestProductAddAndList(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	err := repo.Add(ctx, ProductInput{
		SKU:       "P-1",
		Name:      "Milk 1L",
		Category:  strPtr("Dairy"),
		Quantity:  10,
		UnitPrice: 1.85,
		Barcode:   strPtr("4000001"),
		MinStock:  5,
	}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	products, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if p.SKU != "P-1" || p.Name != "Milk 1L" || p.Quantity != 10 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p.Barcode == nil || *p.Barcode != "4000001" {
		t.Fatalf("barcode not stored: %+v", p.Barcode)
	}
}

func TestProductAddRejectsInvalidInput(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ProductInput
	}{
		{"missing sku", ProductInput{Name: "X"}},
		{"missing name", ProductInput{SKU: "X"}},
		{"negative quantity", ProductInput{SKU: "X", Name: "X", Quantity: -1}},
		{"negative price", ProductInput{SKU: "X", Name: "X", UnitPrice: -0.5}},
		{"bad expiry", ProductInput{SKU: "X", Name: "X", ExpiryDate: strPtr("not-a-date")}},
	}
	for _, tc := range cases {
		if err := repo.Add(ctx, tc.in, 1); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestProductAddDuplicateKeys(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	base := ProductInput{SKU: "D-1", Name: "First", Barcode: strPtr("111"), MinStock: 1}
	if err := repo.Add(ctx, base, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := repo.Add(ctx, ProductInput{SKU: "D-1", Name: "Dup SKU"}, 1)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on sku, got %v", err)
	}
	err = repo.Add(ctx, ProductInput{SKU: "D-2", Name: "Dup Barcode", Barcode: strPtr("111")}, 1)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on barcode, got %v", err)
	}
}

// The same sku and barcode are legal under a different tenant, and each
// tenant only sees its own rows.
func TestProductTenantIsolation(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	in := ProductInput{SKU: "T-1", Name: "Shared", Barcode: strPtr("222")}
	if err := repo.Add(ctx, in, 1); err != nil {
		t.Fatalf("add for tenant 1: %v", err)
	}
	if err := repo.Add(ctx, in, 2); err != nil {
		t.Fatalf("add for tenant 2: %v", err)
	}

	for _, owner := range []int64{1, 2} {
		products, err := repo.List(ctx, owner)
		if err != nil {
			t.Fatalf("list tenant %d: %v", owner, err)
		}
		if len(products) != 1 {
			t.Fatalf("tenant %d sees %d products, expected 1", owner, len(products))
		}
	}

	// Deleting through the wrong tenant must not touch the row.
	one, _ := repo.List(ctx, 1)
	if err := repo.Delete(ctx, one[0].ID, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting across tenants, got %v", err)
	}
}

func TestProductFindByBarcode(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	if err := repo.Add(ctx, ProductInput{SKU: "B-1", Name: "Scanned", Barcode: strPtr("333")}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	p, err := repo.FindByBarcode(ctx, "333", 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.SKU != "B-1" {
		t.Fatalf("wrong product found: %+v", p)
	}

	if _, err := repo.FindByBarcode(ctx, "333", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
	if _, err := repo.FindByBarcode(ctx, "nope", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown barcode, got %v", err)
	}
}

func TestChangeStockByIDWritesQuantityAndLedger(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	if err := repo.Add(ctx, ProductInput{SKU: "S-1", Name: "Stocked", Quantity: 10}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	products, _ := repo.List(ctx, 1)
	id := products[0].ID

	if err := repo.ChangeStockByID(ctx, id, -3, 1, strPtr("cashier-7"), "sale"); err != nil {
		t.Fatalf("change stock: %v", err)
	}

	products, _ = repo.List(ctx, 1)
	if products[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", products[0].Quantity)
	}
	ledger, err := NewLedgerRepo(store).List(ctx, 1)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(ledger) != 1 || ledger[0].Change != -3 || ledger[0].SKU != "S-1" {
		t.Fatalf("unexpected ledger contents: %+v", ledger)
	}
	// The ledger records who moved the stock, not the tenant.
	if ledger[0].ActorID == nil || *ledger[0].ActorID != "cashier-7" {
		t.Fatalf("expected actor cashier-7 in ledger, got %+v", ledger[0].ActorID)
	}
}

// If the ledger insert fails, the quantity update must roll back with it.
func TestChangeStockByIDAtomicOnLedgerFailure(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	if err := repo.Add(ctx, ProductInput{SKU: "A-1", Name: "Atomic", Quantity: 10}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	products, _ := repo.List(ctx, 1)
	id := products[0].ID

	// Make the ledger write fail mid-transaction.
	if err := store.Exec(ctx, `ALTER TABLE stock_transactions RENAME TO _st_hidden`); err != nil {
		t.Fatalf("hide ledger table: %v", err)
	}
	if err := repo.ChangeStockByID(ctx, id, -3, 1, nil, "sale"); err == nil {
		t.Fatal("expected failure with ledger table missing")
	}
	if err := store.Exec(ctx, `ALTER TABLE _st_hidden RENAME TO stock_transactions`); err != nil {
		t.Fatalf("restore ledger table: %v", err)
	}

	products, _ = repo.List(ctx, 1)
	if products[0].Quantity != 10 {
		t.Fatalf("quantity changed despite rollback: %d", products[0].Quantity)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM stock_transactions`); n != 0 {
		t.Fatalf("ledger row written despite rollback: %d", n)
	}
}

func TestChangeStockByIDUnknownProduct(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)

	err := repo.ChangeStockByID(context.Background(), 999, 1, 1, nil, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProductUpdatePatchSemantics(t *testing.T) {
	store := newTestStore(t)
	repo := NewProductRepo(store)
	ctx := context.Background()

	err := repo.Add(ctx, ProductInput{
		SKU: "U-1", Name: "Before", Quantity: 5, UnitPrice: 2.0,
		Category: strPtr("Dairy"), Barcode: strPtr("444"),
	}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	products, _ := repo.List(ctx, 1)
	id := products[0].ID

	// Name changes, quantity kept (nil), category cleared (empty string).
	err = repo.Update(ctx, id, ProductPatch{
		Name:     strPtr("After"),
		Category: strPtr(""),
		Barcode:  strPtr("444"),
	}, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	products, _ = repo.List(ctx, 1)
	p := products[0]
	if p.Name != "After" {
		t.Fatalf("name not updated: %q", p.Name)
	}
	if p.Quantity != 5 {
		t.Fatalf("nil quantity patch should keep value, got %d", p.Quantity)
	}
	if p.Category != nil {
		t.Fatalf("empty category should clear column, got %v", *p.Category)
	}

	if err := repo.Update(ctx, 999, ProductPatch{Name: strPtr("X")}, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
