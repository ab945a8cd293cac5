// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import "errors"

var (
	// ErrValidation marks input rejected before any store or network call.
	// Never retried automatically; the message is surfaced to the caller.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateKey marks a natural-key collision within the tenant,
	// raised by the repository pre-check rather than the store constraint
	// so the caller gets an actionable message.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound marks a lookup or targeted write that matched no row for
	// the given tenant.
	ErrNotFound = errors.New("not found")

	// ErrSyncInProgress is returned by SyncAll when a cycle is already
	// running; the triggered cycle is coalesced into the running one.
	ErrSyncInProgress = errors.New("sync cycle already in progress")
)
