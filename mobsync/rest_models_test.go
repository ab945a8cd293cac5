// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWireTime(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2026-03-01T12:30:45.123Z", true, "2026-03-01T12:30:45.123Z"},
		{"2026-03-01T12:30:45Z", true, "2026-03-01T12:30:45.000Z"},
		{"2026-03-01T12:30:45+02:00", true, "2026-03-01T10:30:45.000Z"},
		{"2026-03-01", true, "2026-03-01T00:00:00.000Z"},
		{"garbage", false, ""},
		{"", false, ""},
	}

	for _, tc := range cases {
		got, err := ParseWireTime(tc.in)
		if !tc.ok {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, FormatWireTime(got), "input %q", tc.in)
	}
}

// The wire format must sort lexicographically in chronological order; the
// client's newer-wins SQL relies on it.
func TestWireTimeLexicographicOrder(t *testing.T) {
	earlier := FormatWireTime(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	later := FormatWireTime(time.Date(2026, 3, 1, 10, 0, 0, 5e6, time.UTC))
	require.Less(t, earlier, later)
}

func TestProductRowValidate(t *testing.T) {
	valid := ProductRow{SKU: "V-1", Name: "Valid", Quantity: 1, UnitPrice: 1, OwnerID: 1}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		mut  func(*ProductRow)
	}{
		{"empty sku", func(r *ProductRow) { r.SKU = "  " }},
		{"empty name", func(r *ProductRow) { r.Name = "" }},
		{"negative quantity", func(r *ProductRow) { r.Quantity = -1 }},
		{"negative price", func(r *ProductRow) { r.UnitPrice = -0.5 }},
		{"negative minStock", func(r *ProductRow) { m := int64(-1); r.MinStock = &m }},
		{"bad expiry", func(r *ProductRow) { s := "not-a-date"; r.ExpiryDate = &s }},
		{"bad updatedAt", func(r *ProductRow) { r.UpdatedAt = "yesterday" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := valid
			tc.mut(&row)
			err := row.Validate()
			require.ErrorIs(t, err, ErrBadPayload)
		})
	}
}

func TestSupplierRowValidate(t *testing.T) {
	valid := SupplierRow{Name: "Acme", OwnerID: 1}
	require.NoError(t, valid.Validate())

	empty := SupplierRow{Name: "   "}
	require.ErrorIs(t, empty.Validate(), ErrBadPayload)

	badStamp := SupplierRow{Name: "Acme", UpdatedAt: "garbage"}
	require.ErrorIs(t, badStamp.Validate(), ErrBadPayload)
}
