// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// fixedNow pins the deriver's clock so expiry windows are deterministic.
func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2026-06-15T12:00:00Z")
	if err != nil {
		t.Fatalf("parse fixture time: %v", err)
	}
	return now
}

func newTestDeriver(t *testing.T, store *Store) *AlertDeriver {
	t.Helper()
	d := NewAlertDeriver(store, nil)
	now := fixedNow(t)
	d.now = func() time.Time { return now }
	return d
}

func addProduct(t *testing.T, store *Store, in ProductInput, ownerID int64) {
	t.Helper()
	if err := NewProductRepo(store).Add(context.Background(), in, ownerID); err != nil {
		t.Fatalf("add product %s: %v", in.SKU, err)
	}
}

func activeByType(t *testing.T, store *Store, ownerID int64) map[string][]Notification {
	t.Helper()
	active, err := NewNotificationRepo(store).Active(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	out := map[string][]Notification{}
	for _, n := range active {
		out[n.Type] = append(out[n.Type], n)
	}
	return out
}

func TestDeriveAlertsLowStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addProduct(t, store, ProductInput{SKU: "LS-1", Name: "Low", Quantity: 2, MinStock: 5}, 1)
	addProduct(t, store, ProductInput{SKU: "LS-2", Name: "Edge", Quantity: 5, MinStock: 5}, 1)
	addProduct(t, store, ProductInput{SKU: "LS-3", Name: "Fine", Quantity: 6, MinStock: 5}, 1)

	if err := newTestDeriver(t, store).DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("derive: %v", err)
	}

	byType := activeByType(t, store, 1)
	if len(byType[NotifLowStock]) != 2 {
		t.Fatalf("expected 2 low stock alerts (quantity <= minStock), got %d", len(byType[NotifLowStock]))
	}
	if len(byType[NotifExpiry])+len(byType[NotifExpired]) != 0 {
		t.Fatalf("unexpected expiry alerts: %v", byType)
	}
}

func TestDeriveAlertsExpiryWindows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Relative to the pinned clock 2026-06-15: one already expired, one
	// inside the 30-day window, one beyond it.
	addProduct(t, store, ProductInput{SKU: "EX-1", Name: "Gone", Quantity: 10, ExpiryDate: strPtr("2026-06-10")}, 1)
	addProduct(t, store, ProductInput{SKU: "EX-2", Name: "Soon", Quantity: 10, ExpiryDate: strPtr("2026-07-01")}, 1)
	addProduct(t, store, ProductInput{SKU: "EX-3", Name: "Later", Quantity: 10, ExpiryDate: strPtr("2026-12-01")}, 1)

	if err := newTestDeriver(t, store).DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("derive: %v", err)
	}

	byType := activeByType(t, store, 1)
	if n := len(byType[NotifExpired]); n != 1 {
		t.Fatalf("expected 1 EXPIRED alert, got %d", n)
	}
	if byType[NotifExpired][0].SKU == nil || *byType[NotifExpired][0].SKU != "EX-1" {
		t.Fatalf("EXPIRED alert for wrong product: %+v", byType[NotifExpired][0])
	}
	if n := len(byType[NotifExpiry]); n != 1 {
		t.Fatalf("expected 1 EXPIRY alert, got %d", n)
	}
	if byType[NotifExpiry][0].SKU == nil || *byType[NotifExpiry][0].SKU != "EX-2" {
		t.Fatalf("EXPIRY alert for wrong product: %+v", byType[NotifExpiry][0])
	}
}

// Re-running the deriver over unchanged data must not duplicate alerts.
func TestDeriveAlertsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addProduct(t, store, ProductInput{SKU: "ID-1", Name: "Low", Quantity: 1, MinStock: 5, ExpiryDate: strPtr("2026-06-01")}, 1)

	d := newTestDeriver(t, store)
	for i := 0; i < 3; i++ {
		if err := d.DeriveAlerts(ctx, 1); err != nil {
			t.Fatalf("derive run %d: %v", i+1, err)
		}
	}

	if n := countRows(t, store, `SELECT COUNT(*) FROM notifications`); n != 2 {
		t.Fatalf("expected exactly 2 notifications (low stock + expired), got %d", n)
	}
}

// Once resolved, the same condition may fire again on a later run.
func TestDeriveAlertsRefiresAfterResolve(t *testing.T) {
	store := newTestStore(t)
	notifs := NewNotificationRepo(store)
	ctx := context.Background()

	addProduct(t, store, ProductInput{SKU: "RF-1", Name: "Low", Quantity: 1, MinStock: 5}, 1)

	d := newTestDeriver(t, store)
	if err := d.DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("derive: %v", err)
	}
	active, _ := notifs.Active(ctx, 1)
	if len(active) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(active))
	}
	if err := notifs.Resolve(ctx, active[0].ID, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := d.DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("second derive: %v", err)
	}
	active, _ = notifs.Active(ctx, 1)
	if len(active) != 1 {
		t.Fatalf("expected alert to re-fire after resolve, got %d active", len(active))
	}
}

func TestDeriveAlertsSkipsMalformedExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Bypass repo validation to simulate bad data synced from elsewhere.
	err := store.Exec(ctx, `
		INSERT INTO products (sku, name, quantity, unitPrice, expiryDate, minStock, createdAt, updatedAt, ownerUserId)
		VALUES ('BAD-1', 'Broken', 10, 1, 'garbage', 0, `+sqliteNow+`, `+sqliteNow+`, 1)`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	addProduct(t, store, ProductInput{SKU: "OK-1", Name: "Fine", Quantity: 10, ExpiryDate: strPtr("2026-06-01")}, 1)

	if err := newTestDeriver(t, store).DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("derive should continue past malformed rows: %v", err)
	}

	byType := activeByType(t, store, 1)
	if len(byType[NotifExpired]) != 1 {
		t.Fatalf("expected the well-formed product to still alert, got %v", byType)
	}
}

func TestDeriveAlertsTenantScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addProduct(t, store, ProductInput{SKU: "TS-1", Name: "Mine", Quantity: 0, MinStock: 5}, 1)
	addProduct(t, store, ProductInput{SKU: "TS-2", Name: "Theirs", Quantity: 0, MinStock: 5}, 2)

	if err := newTestDeriver(t, store).DeriveAlerts(ctx, 1); err != nil {
		t.Fatalf("derive: %v", err)
	}

	if n := countRows(t, store, `SELECT COUNT(*) FROM notifications WHERE ownerUserId = 2`); n != 0 {
		t.Fatalf("derivation leaked into another tenant: %d rows", n)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM notifications WHERE ownerUserId = 1`); n != 1 {
		t.Fatalf("expected 1 alert for tenant 1, got %d", n)
	}
}
