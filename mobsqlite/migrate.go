// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
)

// EnsureSchema idempotently brings the local store to the current schema
// version. Safe to call on every app start; it runs before any other
// component touches the store.
//
// Strategy per table: create-if-missing with the target shape, add missing
// columns via ALTER, and rebuild the table inside one transaction when a
// uniqueness-scope change (global UNIQUE(name) -> UNIQUE(name, owner))
// cannot be expressed as an ALTER. A mid-rebuild failure rolls back to the
// previous schema.
func EnsureSchema(ctx context.Context, store *Store) error {
	if err := ensureSuppliersTable(ctx, store); err != nil {
		return fmt.Errorf("suppliers: %w", err)
	}
	if err := ensureProducts(ctx, store); err != nil {
		return fmt.Errorf("products: %w", err)
	}
	if err := ensureCategoriesTable(ctx, store); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	if err := ensureStockTransactions(ctx, store); err != nil {
		return fmt.Errorf("stock_transactions: %w", err)
	}
	if err := ensureNotifications(ctx, store); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if err := ensureSuppliersTenancy(ctx, store); err != nil {
		return fmt.Errorf("suppliers tenancy: %w", err)
	}
	if err := ensureSyncInfo(ctx, store); err != nil {
		return fmt.Errorf("sync_info: %w", err)
	}
	return nil
}

/* ------------------------------- helpers ------------------------------- */

func columnExists(ctx context.Context, store *Store, table, column string) (bool, error) {
	rows, err := store.Query(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if rowString(row, "name") == column {
			return true, nil
		}
	}
	return false, nil
}

func addColumnIfMissing(ctx context.Context, store *Store, table, column, definition string) error {
	exists, err := columnExists(ctx, store, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return store.Exec(ctx, fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %s`, table, definition))
}

// uniqueIndexExists reports whether the table carries a unique index over
// exactly the given columns, in order.
func uniqueIndexExists(ctx context.Context, store *Store, table string, columns []string) (bool, error) {
	indexes, err := store.Query(ctx, fmt.Sprintf(`PRAGMA index_list(%q)`, table))
	if err != nil {
		return false, err
	}
	for _, idx := range indexes {
		if rowInt64(idx, "unique") != 1 {
			continue
		}
		info, err := store.Query(ctx, fmt.Sprintf(`PRAGMA index_info(%q)`, rowString(idx, "name")))
		if err != nil {
			return false, err
		}
		if len(info) != len(columns) {
			continue
		}
		match := true
		for _, col := range info {
			seq := rowInt64(col, "seqno")
			if seq < 0 || seq >= int64(len(columns)) || rowString(col, "name") != columns[seq] {
				match = false
				break
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

/* ------------------------------- products ------------------------------- */

const productsTableSQL = `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		unitPrice REAL NOT NULL DEFAULT 0 CHECK (unitPrice >= 0),
		supplierName TEXT,
		expiryDate TEXT,
		barcode TEXT,
		minStock INTEGER NOT NULL DEFAULT 5,
		createdAt TEXT NOT NULL DEFAULT (` + sqliteNow + `),
		updatedAt TEXT NOT NULL DEFAULT (` + sqliteNow + `),
		ownerUserId INTEGER
	)`

func ensureProducts(ctx context.Context, store *Store) error {
	if err := store.Exec(ctx, productsTableSQL); err != nil {
		return err
	}

	// Older installs predate the tenant column. ALTER is tried first; a
	// failure there falls through to the full rebuild.
	hasOwner, err := columnExists(ctx, store, "products", "ownerUserId")
	if err != nil {
		return err
	}
	if !hasOwner {
		if err := store.Exec(ctx, `ALTER TABLE products ADD COLUMN ownerUserId INTEGER`); err != nil {
			store.logger.Warn("ALTER TABLE products failed; rebuilding with ownerUserId", "error", err)
			return rebuildProducts(ctx, store, false)
		}
	}

	// A leftover global UNIQUE(sku) from the single-tenant era would keep
	// rejecting the same sku across tenants. It cannot be dropped with
	// ALTER when it is an inline constraint, so rebuild the table.
	hasGlobalSKU, err := uniqueIndexExists(ctx, store, "products", []string{"sku"})
	if err != nil {
		return err
	}
	if hasGlobalSKU {
		return rebuildProducts(ctx, store, true)
	}
	return ensureProductIndexes(ctx, store)
}

func ensureProductIndexes(ctx context.Context, store *Store) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
		`CREATE INDEX IF NOT EXISTS idx_products_owner ON products(ownerUserId)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku_owner ON products(sku, ownerUserId)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_barcode_owner ON products(barcode, ownerUserId)`,
	}
	for _, stmt := range stmts {
		if err := store.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebuildProducts recreates the products table with the target shape and
// copies rows across, substituting NULL for the tenant column when the old
// shape lacked it. All-or-nothing.
func rebuildProducts(ctx context.Context, store *Store, hadOwnerColumn bool) error {
	ownerExpr := "NULL"
	if hadOwnerColumn {
		ownerExpr = "ownerUserId"
	}
	return store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Exec(ctx, `ALTER TABLE products RENAME TO _products_old`); err != nil {
			return err
		}
		if err := tx.Exec(ctx, productsTableSQL); err != nil {
			return err
		}
		copySQL := fmt.Sprintf(`
			INSERT INTO products
				(id, sku, name, category, quantity, unitPrice, supplierName, expiryDate, barcode, minStock, createdAt, updatedAt, ownerUserId)
			SELECT
				id, sku, name, category, quantity, unitPrice, supplierName, expiryDate, barcode, minStock, createdAt, updatedAt, %s
			FROM _products_old`, ownerExpr)
		if err := tx.Exec(ctx, copySQL); err != nil {
			return err
		}
		if err := tx.Exec(ctx, `DROP TABLE _products_old`); err != nil {
			return err
		}
		stmts := []string{
			`CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)`,
			`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
			`CREATE INDEX IF NOT EXISTS idx_products_owner ON products(ownerUserId)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku_owner ON products(sku, ownerUserId)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_barcode_owner ON products(barcode, ownerUserId)`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

/* ------------------------------ suppliers ------------------------------ */

func ensureSuppliersTable(ctx context.Context, store *Store) error {
	// Current base shape; ensureSuppliersTenancy upgrades databases written
	// by the single-tenant first release (inline UNIQUE(name), no owner).
	err := store.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT,
			email TEXT,
			address TEXT,
			note TEXT,
			createdAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
			updatedAt TEXT NOT NULL DEFAULT (`+sqliteNow+`)
		)`)
	if err != nil {
		return err
	}
	return store.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers(name)`)
}

func ensureSuppliersTenancy(ctx context.Context, store *Store) error {
	if err := addColumnIfMissing(ctx, store, "suppliers", "ownerUserId", "ownerUserId INTEGER"); err != nil {
		return err
	}

	// updatedAt arrived after the first release; ALTER cannot carry a
	// non-constant default, so backfill explicitly.
	hasUpdated, err := columnExists(ctx, store, "suppliers", "updatedAt")
	if err != nil {
		return err
	}
	if !hasUpdated {
		if err := store.Exec(ctx, `ALTER TABLE suppliers ADD COLUMN updatedAt TEXT`); err != nil {
			return err
		}
		if err := store.Exec(ctx, `UPDATE suppliers SET updatedAt = `+sqliteNow+` WHERE updatedAt IS NULL`); err != nil {
			return err
		}
	}
	if err := store.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_suppliers_updated ON suppliers(updatedAt)`); err != nil {
		return err
	}

	// Same single-tenant leftover as products: an inline UNIQUE(name)
	// forces a rebuild before the per-tenant scope can apply.
	hasGlobalName, err := uniqueIndexExists(ctx, store, "suppliers", []string{"name"})
	if err != nil {
		return err
	}
	if hasGlobalName {
		if err := rebuildSuppliers(ctx, store); err != nil {
			return err
		}
	}

	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_suppliers_owner ON suppliers(ownerUserId)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_suppliers_unique_owner ON suppliers(name, ownerUserId)`,
	}
	for _, stmt := range stmts {
		if err := store.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebuildSuppliers moves from global UNIQUE(name) to UNIQUE(name, owner).
func rebuildSuppliers(ctx context.Context, store *Store) error {
	return store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Exec(ctx, `ALTER TABLE suppliers RENAME TO _suppliers_old`); err != nil {
			return err
		}
		err := tx.Exec(ctx, `
			CREATE TABLE suppliers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				phone TEXT,
				email TEXT,
				address TEXT,
				note TEXT,
				createdAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
				updatedAt TEXT,
				ownerUserId INTEGER
			)`)
		if err != nil {
			return err
		}
		err = tx.Exec(ctx, `
			INSERT INTO suppliers
				(id, name, phone, email, address, note, createdAt, updatedAt, ownerUserId)
			SELECT
				id, name, phone, email, address, note, createdAt,
				COALESCE(updatedAt, `+sqliteNow+`),
				ownerUserId
			FROM _suppliers_old`)
		if err != nil {
			return err
		}
		if err := tx.Exec(ctx, `DROP TABLE _suppliers_old`); err != nil {
			return err
		}
		stmts := []string{
			`CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers(name)`,
			`CREATE INDEX IF NOT EXISTS idx_suppliers_owner ON suppliers(ownerUserId)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_suppliers_unique_owner ON suppliers(name, ownerUserId)`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

/* ------------------------------ categories ------------------------------ */

func ensureCategoriesTable(ctx context.Context, store *Store) error {
	err := store.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			createdAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
			updatedAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
			ownerUserId INTEGER
		)`)
	if err != nil {
		return err
	}
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_categories_owner ON categories(ownerUserId)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_owner ON categories(name, ownerUserId)`,
	}
	for _, stmt := range stmts {
		if err := store.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

/* -------------------------- stock transactions -------------------------- */

func ensureStockTransactions(ctx context.Context, store *Store) error {
	err := store.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stock_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sku TEXT,
			change INTEGER,
			reason TEXT,
			userId TEXT,
			createdAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
			ownerUserId INTEGER
		)`)
	if err != nil {
		return err
	}
	if err := addColumnIfMissing(ctx, store, "stock_transactions", "ownerUserId", "ownerUserId INTEGER"); err != nil {
		return err
	}
	return store.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_st_owner ON stock_transactions(ownerUserId)`)
}

/* ----------------------------- notifications ----------------------------- */

func ensureNotifications(ctx context.Context, store *Store) error {
	err := store.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sku TEXT,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			resolved INTEGER NOT NULL DEFAULT 0,
			createdAt TEXT NOT NULL DEFAULT (`+sqliteNow+`),
			ownerUserId INTEGER
		)`)
	if err != nil {
		return err
	}
	if err := addColumnIfMissing(ctx, store, "notifications", "ownerUserId", "ownerUserId INTEGER"); err != nil {
		return err
	}
	return store.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_notifications_owner ON notifications(ownerUserId)`)
}

/* ------------------------------- sync_info ------------------------------- */

func ensureSyncInfo(ctx context.Context, store *Store) error {
	err := store.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sync_info (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			lastSync TEXT
		)`)
	if err != nil {
		return err
	}
	rows, err := store.Query(ctx, `SELECT COUNT(*) AS c FROM sync_info WHERE id = 1`)
	if err != nil {
		return err
	}
	if len(rows) == 0 || rowInt64(rows[0], "c") == 0 {
		return store.Exec(ctx, `INSERT INTO sync_info (id, lastSync) VALUES (1, NULL)`)
	}
	return nil
}
