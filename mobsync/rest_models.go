// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"fmt"
	"strings"
	"time"
)

// REST/JSON models for the sync HTTP surface. Timestamps travel as RFC3339
// UTC strings with millisecond precision, matching what the client persists,
// so the client's lexicographic newer-wins compare agrees with time order.

// WireTimeLayout is the timestamp format emitted on the wire.
const WireTimeLayout = "2006-01-02T15:04:05.000Z"

// ParseWireTime accepts the timestamp shapes clients have historically sent.
func ParseWireTime(s string) (time.Time, error) {
	for _, layout := range []string{WireTimeLayout, time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatWireTime renders a timestamp in the wire format.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(WireTimeLayout)
}

// ProductRow is one product in an upload batch or download response.
// ownerUserId carries the organization id on the wire (historical name).
type ProductRow struct {
	ID           *int64  `json:"id,omitempty"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     *string `json:"category,omitempty"`
	CategoryID   *int64  `json:"categoryId,omitempty"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	SupplierName *string `json:"supplierName,omitempty"`
	SupplierID   *int64  `json:"supplierId,omitempty"`
	ExpiryDate   *string `json:"expiryDate,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	MinStock     *int64  `json:"minStock,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
	OwnerID      int64   `json:"ownerUserId"`
}

// Validate rejects a malformed row before any store write.
func (r *ProductRow) Validate() error {
	if strings.TrimSpace(r.SKU) == "" {
		return fmt.Errorf("%w: sku is required", ErrBadPayload)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadPayload)
	}
	if r.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrBadPayload)
	}
	if r.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice must be >= 0", ErrBadPayload)
	}
	if r.MinStock != nil && *r.MinStock < 0 {
		return fmt.Errorf("%w: minStock must be >= 0", ErrBadPayload)
	}
	if r.ExpiryDate != nil && *r.ExpiryDate != "" {
		if _, err := ParseWireTime(*r.ExpiryDate); err != nil {
			return fmt.Errorf("%w: expiryDate %q is not a valid date", ErrBadPayload, *r.ExpiryDate)
		}
	}
	if r.UpdatedAt != "" {
		if _, err := ParseWireTime(r.UpdatedAt); err != nil {
			return fmt.Errorf("%w: updatedAt %q is not a valid timestamp", ErrBadPayload, r.UpdatedAt)
		}
	}
	return nil
}

// SupplierRow is one supplier in a bulk upsert batch or delta response.
type SupplierRow struct {
	ID        *int64  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
	OwnerID   int64   `json:"ownerUserId"`
}

// Validate rejects a malformed row before any store write.
func (r *SupplierRow) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadPayload)
	}
	if r.UpdatedAt != "" {
		if _, err := ParseWireTime(r.UpdatedAt); err != nil {
			return fmt.Errorf("%w: updatedAt %q is not a valid timestamp", ErrBadPayload, r.UpdatedAt)
		}
	}
	return nil
}

// AckResponse is the acknowledgement envelope for upload endpoints.
type AckResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// ProductDownloadResponse is the GET /sync/download envelope.
type ProductDownloadResponse struct {
	OK   bool         `json:"ok"`
	Data []ProductRow `json:"data"`
}

// SupplierDeltaResponse is the GET /suppliers/delta envelope.
type SupplierDeltaResponse struct {
	OK   bool          `json:"ok"`
	Data []SupplierRow `json:"data"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
