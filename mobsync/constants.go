// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

// Notification types shared with the mobile client.
const (
	NotifLowStock = "LOW_STOCK"
	NotifExpiry   = "EXPIRY"
	NotifExpired  = "EXPIRED"
)

// Per-tenant fallbacks applied when an uploaded row carries no category or
// supplier reference. Rows are never rejected for a missing reference.
const (
	FallbackCategoryName = "Uncategorized"
	FallbackSupplierName = "General"
)

// Roles recognized by the capability checks on the upload path.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleStaff   = "Staff"
)

// expiryWarnDays is the look-ahead window for EXPIRY notifications.
const expiryWarnDays = 30
