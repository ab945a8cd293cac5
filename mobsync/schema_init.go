// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// initializeSchemaInTx creates the server-side inventory tables if they do
// not exist. Idempotent; runs inside one transaction at service startup.
func (s *SyncService) initializeSchemaInTx(ctx context.Context, tx pgx.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id              BIGSERIAL PRIMARY KEY,
			name            TEXT NOT NULL,
			organization_id BIGINT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (name, organization_id)
		)`,

		// updated_at carries the client-claimed edit time (the newer-wins
		// key); server_changed_at is stamped by the server clock on every
		// applied change and drives delta downloads.
		`CREATE TABLE IF NOT EXISTS suppliers (
			id                BIGSERIAL PRIMARY KEY,
			name              TEXT NOT NULL,
			phone             TEXT,
			email             TEXT,
			address           TEXT,
			note              TEXT,
			organization_id   BIGINT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			server_changed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (name, organization_id)
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id                BIGSERIAL PRIMARY KEY,
			sku               TEXT NOT NULL,
			name              TEXT NOT NULL,
			category          TEXT,
			category_id       BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			quantity          BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			unit_price        DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
			supplier_name     TEXT,
			supplier_id       BIGINT REFERENCES suppliers(id) ON DELETE SET NULL,
			expiry_date       TEXT,
			barcode           TEXT,
			min_stock         BIGINT NOT NULL DEFAULT 0,
			organization_id   BIGINT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			server_changed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (sku, organization_id)
		)`,

		// Barcode uniqueness only applies to rows that carry one.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_barcode_org
			ON products (barcode, organization_id) WHERE barcode IS NOT NULL`,

		`CREATE INDEX IF NOT EXISTS idx_products_org_changed
			ON products (organization_id, server_changed_at)`,

		`CREATE INDEX IF NOT EXISTS idx_suppliers_org_changed
			ON suppliers (organization_id, server_changed_at)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id              BIGSERIAL PRIMARY KEY,
			sku             TEXT NOT NULL DEFAULT '',
			type            TEXT NOT NULL,
			message         TEXT NOT NULL,
			resolved        BOOLEAN NOT NULL DEFAULT false,
			organization_id BIGINT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// The dedup key behind at-most-once alert generation: one open
		// notification per distinct condition per organization.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_open_condition
			ON notifications (sku, type, message, organization_id) WHERE NOT resolved`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
