// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"fmt"
)

// NotificationRepo provides tenant-scoped access to materialized alert rows.
type NotificationRepo struct {
	store *Store
}

// NewNotificationRepo creates a notification repository over the given store.
func NewNotificationRepo(store *Store) *NotificationRepo {
	return &NotificationRepo{store: store}
}

// AddOnce inserts a notification unless an unresolved row with the same
// (sku, type, message) already exists for the tenant. This composite key is
// what makes alert derivation idempotent. Reports whether a row was written.
func (r *NotificationRepo) AddOnce(ctx context.Context, sku *string, typ, message string, ownerID int64) (bool, error) {
	if typ == "" || message == "" {
		return false, fmt.Errorf("%w: type and message are required", ErrValidation)
	}
	existing, err := r.store.Query(ctx, `
		SELECT id FROM notifications
		WHERE sku IS ? AND type = ? AND message = ? AND resolved = 0 AND ownerUserId = ?
		LIMIT 1`,
		sku, typ, message, ownerID)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	err = r.store.Exec(ctx, `
		INSERT INTO notifications (sku, type, message, resolved, ownerUserId, createdAt)
		VALUES (?, ?, ?, 0, ?, `+sqliteNow+`)`,
		sku, typ, message, ownerID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Active returns the tenant's unresolved notifications, newest first.
func (r *NotificationRepo) Active(ctx context.Context, ownerID int64) ([]Notification, error) {
	rows, err := r.store.Query(ctx, `
		SELECT * FROM notifications
		WHERE ownerUserId = ? AND resolved = 0
		ORDER BY createdAt DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	notifications := make([]Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, notificationFromRow(row))
	}
	return notifications, nil
}

// Resolve marks a notification as handled. A resolved row no longer blocks
// re-derivation of the same condition.
func (r *NotificationRepo) Resolve(ctx context.Context, id, ownerID int64) error {
	n, err := r.store.ExecAffecting(ctx,
		`UPDATE notifications SET resolved = 1 WHERE id = ? AND ownerUserId = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: notification %d", ErrNotFound, id)
	}
	return nil
}
