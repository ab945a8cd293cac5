// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// expiryWarnDays is the look-ahead window for EXPIRY notifications.
const expiryWarnDays = 30

// AlertDeriver scans the tenant's products after a sync cycle and
// materializes low-stock and expiry notifications. Idempotent through the
// notification dedup key; a failure on one product does not stop the scan.
type AlertDeriver struct {
	store  *Store
	notifs *NotificationRepo
	logger *slog.Logger
	now    func() time.Time
}

// NewAlertDeriver creates a deriver over the given store.
func NewAlertDeriver(store *Store, logger *slog.Logger) *AlertDeriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertDeriver{
		store:  store,
		notifs: NewNotificationRepo(store),
		logger: logger,
		now:    time.Now,
	}
}

// parseExpiryDate accepts the date shapes that reach the store: a bare date
// from the edit screen or a full RFC3339 stamp from the server.
func parseExpiryDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// daysUntil computes floor((expiry - now) / 1 day); negative means expired.
func daysUntil(expiry, now time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}

// DeriveAlerts evaluates both alert rules over the tenant's current product
// rows. Low stock fires when quantity <= minStock. For products with an
// expiry date, exactly one of EXPIRED / EXPIRY / none applies per run.
func (d *AlertDeriver) DeriveAlerts(ctx context.Context, ownerID int64) error {
	lowStock, err := d.store.Query(ctx, `
		SELECT sku, name, quantity, minStock
		FROM products
		WHERE ownerUserId = ? AND quantity <= minStock`, ownerID)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	for _, row := range lowStock {
		sku := rowString(row, "sku")
		msg := fmt.Sprintf("%s (%s) stock low (%d/%d)",
			rowString(row, "name"), sku, rowInt64(row, "quantity"), rowInt64(row, "minStock"))
		if _, err := d.notifs.AddOnce(ctx, &sku, NotifLowStock, msg, ownerID); err != nil {
			d.logger.Warn("failed to record low stock notification", "sku", sku, "error", err)
		}
	}

	expiring, err := d.store.Query(ctx, `
		SELECT sku, name, expiryDate
		FROM products
		WHERE ownerUserId = ? AND expiryDate IS NOT NULL`, ownerID)
	if err != nil {
		return fmt.Errorf("expiry scan: %w", err)
	}
	now := d.now().UTC()
	for _, row := range expiring {
		sku := rowString(row, "sku")
		name := rowString(row, "name")
		dateStr := rowString(row, "expiryDate")
		expiry, err := parseExpiryDate(dateStr)
		if err != nil {
			d.logger.Warn("skipping product with malformed expiry date",
				"sku", sku, "expiryDate", dateStr)
			continue
		}

		daysLeft := daysUntil(expiry, now)
		switch {
		case daysLeft < 0:
			msg := fmt.Sprintf("%s (%s) expired on %s", name, sku, dateStr)
			if _, err := d.notifs.AddOnce(ctx, &sku, NotifExpired, msg, ownerID); err != nil {
				d.logger.Warn("failed to record expired notification", "sku", sku, "error", err)
			}
		case daysLeft <= expiryWarnDays:
			msg := fmt.Sprintf("%s (%s) expires %s (%d days left)", name, sku, dateStr, daysLeft)
			if _, err := d.notifs.AddOnce(ctx, &sku, NotifExpiry, msg, ownerID); err != nil {
				d.logger.Warn("failed to record expiry notification", "sku", sku, "error", err)
			}
		}
	}
	return nil
}
