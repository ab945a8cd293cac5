// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"errors"
	"fmt"
)

// ResetLocalTenantState wipes every business table and clears the sync
// watermark in one transaction. Invoked exactly once at identity-change
// boundaries (login as a different tenant, logout): the local store holds a
// single tenant's working set, never a partial mix of two.
func ResetLocalTenantState(ctx context.Context, store *Store) error {
	return store.WithTx(ctx, func(tx *Tx) error {
		for _, table := range []string{
			"products", "suppliers", "categories", "stock_transactions", "notifications",
		} {
			if err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %q`, table)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		// NULL watermark forces a full pull on the next tenant's first sync.
		if err := tx.Exec(ctx, `UPDATE sync_info SET lastSync = NULL WHERE id = 1`); err != nil {
			return fmt.Errorf("failed to clear sync watermark: %w", err)
		}
		return nil
	})
}

// ErrUnsyncedData is returned by SyncAndReset when the final sync attempt
// failed and the caller did not allow discarding unsynced local data.
var ErrUnsyncedData = errors.New("local data could not be synced")

// SyncAndReset is the sign-out path: try to push local state to the server,
// then wipe the tenant's local cache. Sync failures are retried a bounded
// number of times; after the last failure the wipe proceeds only when
// discardOnFailure is set, otherwise ErrUnsyncedData is returned and local
// state is preserved for a later attempt.
func (c *SyncClient) SyncAndReset(ctx context.Context, ownerID int64, attempts int, discardOnFailure bool) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = c.SyncAll(ctx, ownerID)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, ErrSyncInProgress) {
			return lastErr
		}
		c.logger.Warn("sign-out sync attempt failed",
			"attempt", i+1, "attempts", attempts, "error", lastErr)
	}

	if lastErr != nil && !discardOnFailure {
		return fmt.Errorf("%w: %w", ErrUnsyncedData, lastErr)
	}
	if lastErr != nil {
		c.logger.Warn("discarding unsynced local data on sign-out", "error", lastErr)
	}
	return ResetLocalTenantState(ctx, c.store)
}
