// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"fmt"
	"strconv"
	"time"
)

// Timestamps are persisted as RFC3339 UTC text so that lexicographic
// comparison (used by the newer-wins upsert SQL) agrees with chronological
// order. sqliteNow is the SQL expression producing that format.
const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%fZ','now')`

// Product is a locally stored inventory item. ID is the storage-assigned
// primary identifier; (SKU, OwnerID) and (Barcode, OwnerID) are the natural
// keys the sync download has to keep collision-free.
type Product struct {
	ID           int64
	SKU          string
	Name         string
	Category     *string
	Quantity     int64
	UnitPrice    float64
	SupplierName *string
	ExpiryDate   *string
	Barcode      *string
	MinStock     int64
	CreatedAt    string
	UpdatedAt    string
	OwnerID      int64
}

// Supplier is unique per (Name, OwnerID).
type Supplier struct {
	ID        int64
	Name      string
	Phone     *string
	Email     *string
	Address   *string
	Note      *string
	CreatedAt string
	UpdatedAt string
	OwnerID   int64
}

// Category is unique per (Name, OwnerID). Callers usually resolve one by
// free-text name rather than id.
type Category struct {
	ID        int64
	Name      string
	CreatedAt string
	UpdatedAt string
	OwnerID   int64
}

// StockTransaction is one append-only ledger row. The sum of Change per SKU,
// from a base of zero, equals the product's current quantity.
type StockTransaction struct {
	ID        int64
	SKU       string
	Change    int64
	Reason    string
	ActorID   *string
	CreatedAt string
	OwnerID   int64
}

// Notification types materialized by the alert deriver.
const (
	NotifLowStock = "LOW_STOCK"
	NotifExpiry   = "EXPIRY"
	NotifExpired  = "EXPIRED"
)

// Notification is deduplicated on (SKU, Type, Message, resolved=0, OwnerID):
// at most one open notification exists per distinct condition.
type Notification struct {
	ID        int64
	SKU       *string
	Type      string
	Message   string
	Resolved  bool
	CreatedAt string
	OwnerID   int64
}

// nowUTC returns the current time in the persisted timestamp format.
func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

/* ------------------------- row decoding helpers ------------------------- */

func rowInt64(row map[string]any, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func rowFloat64(row map[string]any, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func rowString(row map[string]any, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	if v := row[col]; v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func rowNullString(row map[string]any, col string) *string {
	if row[col] == nil {
		return nil
	}
	s := rowString(row, col)
	return &s
}

func productFromRow(row map[string]any) Product {
	return Product{
		ID:           rowInt64(row, "id"),
		SKU:          rowString(row, "sku"),
		Name:         rowString(row, "name"),
		Category:     rowNullString(row, "category"),
		Quantity:     rowInt64(row, "quantity"),
		UnitPrice:    rowFloat64(row, "unitPrice"),
		SupplierName: rowNullString(row, "supplierName"),
		ExpiryDate:   rowNullString(row, "expiryDate"),
		Barcode:      rowNullString(row, "barcode"),
		MinStock:     rowInt64(row, "minStock"),
		CreatedAt:    rowString(row, "createdAt"),
		UpdatedAt:    rowString(row, "updatedAt"),
		OwnerID:      rowInt64(row, "ownerUserId"),
	}
}

func supplierFromRow(row map[string]any) Supplier {
	return Supplier{
		ID:        rowInt64(row, "id"),
		Name:      rowString(row, "name"),
		Phone:     rowNullString(row, "phone"),
		Email:     rowNullString(row, "email"),
		Address:   rowNullString(row, "address"),
		Note:      rowNullString(row, "note"),
		CreatedAt: rowString(row, "createdAt"),
		UpdatedAt: rowString(row, "updatedAt"),
		OwnerID:   rowInt64(row, "ownerUserId"),
	}
}

func categoryFromRow(row map[string]any) Category {
	return Category{
		ID:        rowInt64(row, "id"),
		Name:      rowString(row, "name"),
		CreatedAt: rowString(row, "createdAt"),
		UpdatedAt: rowString(row, "updatedAt"),
		OwnerID:   rowInt64(row, "ownerUserId"),
	}
}

func stockTransactionFromRow(row map[string]any) StockTransaction {
	return StockTransaction{
		ID:        rowInt64(row, "id"),
		SKU:       rowString(row, "sku"),
		Change:    rowInt64(row, "change"),
		Reason:    rowString(row, "reason"),
		ActorID:   rowNullString(row, "userId"),
		CreatedAt: rowString(row, "createdAt"),
		OwnerID:   rowInt64(row, "ownerUserId"),
	}
}

func notificationFromRow(row map[string]any) Notification {
	return Notification{
		ID:        rowInt64(row, "id"),
		SKU:       rowNullString(row, "sku"),
		Type:      rowString(row, "type"),
		Message:   rowString(row, "message"),
		Resolved:  rowInt64(row, "resolved") != 0,
		CreatedAt: rowString(row, "createdAt"),
		OwnerID:   rowInt64(row, "ownerUserId"),
	}
}
