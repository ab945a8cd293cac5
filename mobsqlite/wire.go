// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"fmt"
	"strings"
)

// Wire DTOs exchanged with the server sync endpoints. Field names follow the
// established JSON contract; rows are validated at the boundary before any
// store write.

// ProductRow is one product on the wire. ID is the server-assigned primary
// identifier (absent on rows the device created before first sync).
type ProductRow struct {
	ID           *int64  `json:"id,omitempty"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     *string `json:"category,omitempty"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	SupplierName *string `json:"supplierName,omitempty"`
	ExpiryDate   *string `json:"expiryDate,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	MinStock     *int64  `json:"minStock,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
	OwnerID      int64   `json:"ownerUserId"`
}

// Validate rejects a row before it can reach the store.
func (r *ProductRow) Validate() error {
	if strings.TrimSpace(r.SKU) == "" {
		return fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if r.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice must be >= 0", ErrValidation)
	}
	if r.ExpiryDate != nil && *r.ExpiryDate != "" {
		if _, err := parseExpiryDate(*r.ExpiryDate); err != nil {
			return fmt.Errorf("%w: expiryDate %q is not a valid date", ErrValidation, *r.ExpiryDate)
		}
	}
	return nil
}

// SupplierRow is one supplier on the wire.
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

// Validate rejects a row before it can reach the store.
func (r *SupplierRow) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

// uploadResponse is the minimal acknowledgement envelope both upload
// endpoints return.
type uploadResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// productDownloadResponse is the GET /sync/download envelope.
type productDownloadResponse struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message,omitempty"`
	Data    []ProductRow `json:"data"`
}

// supplierDeltaResponse is the GET /suppliers/delta envelope.
type supplierDeltaResponse struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message,omitempty"`
	Data    []SupplierRow `json:"data"`
}

func productRowFromLocal(p Product) ProductRow {
	id := p.ID
	minStock := p.MinStock
	return ProductRow{
		ID:           &id,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		Quantity:     p.Quantity,
		UnitPrice:    p.UnitPrice,
		SupplierName: p.SupplierName,
		ExpiryDate:   p.ExpiryDate,
		Barcode:      p.Barcode,
		MinStock:     &minStock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		OwnerID:      p.OwnerID,
	}
}

func supplierRowFromLocal(s Supplier) SupplierRow {
	id := s.ID
	return SupplierRow{
		ID:        &id,
		Name:      s.Name,
		Phone:     s.Phone,
		Email:     s.Email,
		Address:   s.Address,
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		OwnerID:   s.OwnerID,
	}
}
