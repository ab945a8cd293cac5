// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import "errors"

var (
	// ErrBadPayload marks an upload row rejected by boundary validation.
	ErrBadPayload = errors.New("bad payload")

	// ErrForbidden marks an upload rejected by a capability check (e.g.
	// staff creating products or changing expiry dates).
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized marks a request without a valid identity.
	ErrUnauthorized = errors.New("unauthorized")
)
