// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
)

// CheckAlertsForOrganization scans an organization's products and records
// LOW_STOCK, EXPIRY and EXPIRED notifications. Each distinct condition is
// recorded at most once while unresolved; the partial unique index on
// (sku, type, message, organization_id) WHERE NOT resolved makes the
// insert a no-op for conditions already open.
//
// Returns the number of notifications created.
func (s *SyncService) CheckAlertsForOrganization(ctx context.Context, orgID int64) (int, error) {
	if orgID <= 0 {
		return 0, fmt.Errorf("%w: missing organization", ErrUnauthorized)
	}

	created := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := s.recordLowStockAlerts(ctx, tx, orgID)
		if err != nil {
			return err
		}
		created += n

		n, err = s.recordExpiryAlerts(ctx, tx, orgID)
		if err != nil {
			return err
		}
		created += n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		s.logger.Info("alerts recorded", "org", orgID, "created", created)
	}
	return created, nil
}

func (s *SyncService) recordLowStockAlerts(ctx context.Context, tx pgx.Tx, orgID int64) (int, error) {
	rows, err := tx.Query(ctx,
		`SELECT sku, name, quantity, min_stock FROM products
		 WHERE organization_id = $1 AND quantity <= min_stock`,
		orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to scan low stock: %w", err)
	}

	type hit struct {
		sku, msg string
	}
	var hits []hit
	for rows.Next() {
		var (
			sku, name          string
			quantity, minStock int64
		)
		if err := rows.Scan(&sku, &name, &quantity, &minStock); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan low stock row: %w", err)
		}
		hits = append(hits, hit{
			sku: sku,
			msg: fmt.Sprintf("%s (%s) stock low (%d/%d)", name, sku, quantity, minStock),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read low stock rows: %w", err)
	}

	created := 0
	for _, h := range hits {
		n, err := s.insertNotification(ctx, tx, orgID, h.sku, NotifLowStock, h.msg)
		if err != nil {
			return 0, err
		}
		created += n
	}
	return created, nil
}

func (s *SyncService) recordExpiryAlerts(ctx context.Context, tx pgx.Tx, orgID int64) (int, error) {
	rows, err := tx.Query(ctx,
		`SELECT sku, name, expiry_date FROM products
		 WHERE organization_id = $1 AND expiry_date IS NOT NULL AND expiry_date <> ''`,
		orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to scan expiries: %w", err)
	}

	type hit struct {
		sku, typ, msg string
	}
	var hits []hit
	now := time.Now().UTC()
	for rows.Next() {
		var (
			sku, name string
			expiry    *string
		)
		if err := rows.Scan(&sku, &name, &expiry); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan expiry row: %w", err)
		}
		expiryAt, err := ParseWireTime(*expiry)
		if err != nil {
			s.logger.Warn("skipping unparseable expiry date",
				"org", orgID, "sku", sku, "expiryDate", *expiry)
			continue
		}
		daysLeft := int(math.Floor(expiryAt.Sub(now).Hours() / 24))
		switch {
		case daysLeft < 0:
			hits = append(hits, hit{sku, NotifExpired,
				fmt.Sprintf("%s (%s) expired on %s", name, sku, *expiry)})
		case daysLeft <= expiryWarnDays:
			hits = append(hits, hit{sku, NotifExpiry,
				fmt.Sprintf("%s (%s) expires %s (%d days left)", name, sku, *expiry, daysLeft)})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read expiry rows: %w", err)
	}

	created := 0
	for _, h := range hits {
		n, err := s.insertNotification(ctx, tx, orgID, h.sku, h.typ, h.msg)
		if err != nil {
			return 0, err
		}
		created += n
	}
	return created, nil
}

func (s *SyncService) insertNotification(ctx context.Context, tx pgx.Tx, orgID int64, sku, typ, msg string) (int, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO notifications (sku, type, message, organization_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sku, type, message, organization_id) WHERE NOT resolved
		 DO NOTHING`,
		sku, typ, msg, orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to record %s notification for %q: %w", typ, sku, err)
	}
	return int(tag.RowsAffected()), nil
}
