// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// DefaultHTTPTimeout bounds every network call the sync client makes.
// A timeout is treated the same as any other network failure: the current
// phase aborts and local state is left untouched.
const DefaultHTTPTimeout = 30 * time.Second

// SyncClient orchestrates the upload and download phases of one sync cycle
// against the server endpoints, and owns the "last synchronized at"
// watermark in sync_info.
type SyncClient struct {
	store   *Store
	BaseURL string
	Token   func(context.Context) (string, error) // returns a bearer JWT
	HTTP    *http.Client
	logger  *slog.Logger

	// inFlight serializes cycles on one device: a cycle triggered while
	// another runs is coalesced (skipped), never interleaved.
	inFlight int32
}

// NewSyncClient creates a sync client over the given store. tok supplies the
// bearer token per request so a refreshed session is picked up mid-lifetime.
func NewSyncClient(store *Store, baseURL string, tok func(context.Context) (string, error), logger *slog.Logger) *SyncClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncClient{
		store:   store,
		BaseURL: baseURL,
		Token:   tok,
		HTTP:    &http.Client{Timeout: DefaultHTTPTimeout},
		logger:  logger,
	}
}

/* ------------------------------- watermark ------------------------------- */

// LastSync reads the watermark; nil means "never synced, pull everything".
func (c *SyncClient) LastSync(ctx context.Context) (*string, error) {
	rows, err := c.store.Query(ctx, `SELECT lastSync FROM sync_info WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync watermark: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowNullString(rows[0], "lastSync"), nil
}

func (c *SyncClient) setLastSync(ctx context.Context, iso string) error {
	if err := c.store.Exec(ctx, `UPDATE sync_info SET lastSync = ? WHERE id = 1`, iso); err != nil {
		return fmt.Errorf("failed to advance sync watermark: %w", err)
	}
	return nil
}

/* ------------------------------- full cycle ------------------------------- */

// SyncAll runs one full cycle for the tenant: upload products, download
// products, upload suppliers, download suppliers, then advance the watermark.
// Any phase failure aborts the cycle without advancing the watermark, so the
// next cycle retries the same work. Returns ErrSyncInProgress when a cycle is
// already running.
func (c *SyncClient) SyncAll(ctx context.Context, ownerID int64) error {
	if !atomic.CompareAndSwapInt32(&c.inFlight, 0, 1) {
		return ErrSyncInProgress
	}
	defer atomic.StoreInt32(&c.inFlight, 0)

	if err := c.UploadProducts(ctx, ownerID); err != nil {
		return fmt.Errorf("upload products: %w", err)
	}
	if err := c.DownloadProducts(ctx, ownerID); err != nil {
		return fmt.Errorf("download products: %w", err)
	}
	if err := c.UploadSuppliers(ctx, ownerID); err != nil {
		return fmt.Errorf("upload suppliers: %w", err)
	}
	if err := c.DownloadSuppliers(ctx, ownerID); err != nil {
		return fmt.Errorf("download suppliers: %w", err)
	}

	// The watermark is client-clock bookkeeping for the next cycle's delta
	// pull; it is never compared against row timestamps.
	return c.setLastSync(ctx, nowUTC())
}

/* --------------------------------- upload --------------------------------- */

// UploadProducts pushes the tenant's full product set to the server in one
// batch. The set is deliberately not filtered by the watermark: device
// clocks are not trusted against the server clock, and an updatedAt filter
// would silently drop edits stamped behind the watermark. Redundant rows are
// idempotent no-ops under the server's newer-wins merge.
func (c *SyncClient) UploadProducts(ctx context.Context, ownerID int64) error {
	rows, err := c.store.Query(ctx, `SELECT * FROM products WHERE ownerUserId = ?`, ownerID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	batch := make([]ProductRow, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, productRowFromLocal(productFromRow(row)))
	}
	return c.postBatch(ctx, "/sync/upload", batch)
}

// UploadSuppliers pushes the tenant's full supplier set, same contract as
// UploadProducts.
func (c *SyncClient) UploadSuppliers(ctx context.Context, ownerID int64) error {
	rows, err := c.store.Query(ctx, `SELECT * FROM suppliers WHERE ownerUserId = ?`, ownerID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	batch := make([]SupplierRow, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, supplierRowFromLocal(supplierFromRow(row)))
	}
	return c.postBatch(ctx, "/suppliers/bulkUpsert", batch)
}

/* -------------------------------- download -------------------------------- */

// DownloadProducts pulls server products changed since the watermark and
// merges them into the local store with the newer-wins rule. Per-row
// failures are logged and skipped; the batch keeps going (best-effort
// convergence, unlike upload).
func (c *SyncClient) DownloadProducts(ctx context.Context, ownerID int64) error {
	since, err := c.LastSync(ctx)
	if err != nil {
		return err
	}
	var resp productDownloadResponse
	if err := c.getJSON(ctx, "/sync/download", since, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("server rejected download: %s", resp.Message)
	}

	for i := range resp.Data {
		row := &resp.Data[i]
		if err := c.applyProductRow(ctx, row, ownerID); err != nil {
			c.logger.Warn("skipping product row from server",
				"sku", row.SKU, "error", err)
		}
	}
	return nil
}

// applyProductRow validates one incoming row, clears natural-key collisions
// it is about to claim, and upserts it keyed by the server-assigned primary
// identifier, all in one transaction.
func (c *SyncClient) applyProductRow(ctx context.Context, row *ProductRow, ownerID int64) error {
	if err := row.Validate(); err != nil {
		return err
	}
	if row.ID == nil {
		return fmt.Errorf("%w: server row missing id", ErrValidation)
	}
	if row.OwnerID != ownerID {
		return fmt.Errorf("%w: row owner %d does not match active tenant %d",
			ErrValidation, row.OwnerID, ownerID)
	}

	createdAt := row.CreatedAt
	if createdAt == "" {
		createdAt = nowUTC()
	}
	updatedAt := row.UpdatedAt
	if updatedAt == "" {
		updatedAt = nowUTC()
	}
	minStock := int64(5)
	if row.MinStock != nil {
		minStock = *row.MinStock
	}

	return c.store.WithTx(ctx, func(tx *Tx) error {
		// Collision pre-clean: the local store enforces the natural keys
		// independently of the primary identifier, so a locally created
		// duplicate under a temporary identity must yield to the canonical
		// server identity before the keyed upsert.
		if err := tx.Exec(ctx,
			`DELETE FROM products WHERE sku = ? AND ownerUserId = ? AND id <> ?`,
			row.SKU, ownerID, *row.ID); err != nil {
			return err
		}
		if row.Barcode != nil && *row.Barcode != "" {
			if err := tx.Exec(ctx,
				`DELETE FROM products WHERE barcode = ? AND ownerUserId = ? AND id <> ?`,
				*row.Barcode, ownerID, *row.ID); err != nil {
				return err
			}
		}

		return tx.Exec(ctx, `
			INSERT INTO products
				(id, sku, name, category, quantity, unitPrice, supplierName, expiryDate, barcode, minStock, createdAt, updatedAt, ownerUserId)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				sku=excluded.sku,
				name=excluded.name,
				category=excluded.category,
				quantity=excluded.quantity,
				unitPrice=excluded.unitPrice,
				supplierName=excluded.supplierName,
				expiryDate=excluded.expiryDate,
				barcode=excluded.barcode,
				minStock=excluded.minStock,
				createdAt=excluded.createdAt,
				updatedAt=excluded.updatedAt,
				ownerUserId=excluded.ownerUserId
			WHERE excluded.updatedAt > products.updatedAt`,
			*row.ID, row.SKU, row.Name, row.Category, row.Quantity, row.UnitPrice,
			row.SupplierName, row.ExpiryDate, row.Barcode, minStock,
			createdAt, updatedAt, ownerID)
	})
}

// DownloadSuppliers pulls supplier deltas since the watermark, same merge
// contract as DownloadProducts with (name, owner) as the natural key.
func (c *SyncClient) DownloadSuppliers(ctx context.Context, ownerID int64) error {
	since, err := c.LastSync(ctx)
	if err != nil {
		return err
	}
	var resp supplierDeltaResponse
	if err := c.getJSON(ctx, "/suppliers/delta", since, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("server rejected supplier delta: %s", resp.Message)
	}

	for i := range resp.Data {
		row := &resp.Data[i]
		if err := c.applySupplierRow(ctx, row, ownerID); err != nil {
			c.logger.Warn("skipping supplier row from server",
				"name", row.Name, "error", err)
		}
	}
	return nil
}

func (c *SyncClient) applySupplierRow(ctx context.Context, row *SupplierRow, ownerID int64) error {
	if err := row.Validate(); err != nil {
		return err
	}
	if row.ID == nil {
		return fmt.Errorf("%w: server row missing id", ErrValidation)
	}
	if row.OwnerID != ownerID {
		return fmt.Errorf("%w: row owner %d does not match active tenant %d",
			ErrValidation, row.OwnerID, ownerID)
	}

	createdAt := row.CreatedAt
	if createdAt == "" {
		createdAt = nowUTC()
	}
	updatedAt := row.UpdatedAt
	if updatedAt == "" {
		updatedAt = nowUTC()
	}

	return c.store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.Exec(ctx,
			`DELETE FROM suppliers WHERE name = ? AND ownerUserId = ? AND id <> ?`,
			row.Name, ownerID, *row.ID); err != nil {
			return err
		}
		return tx.Exec(ctx, `
			INSERT INTO suppliers
				(id, name, phone, email, address, note, ownerUserId, createdAt, updatedAt)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name=excluded.name,
				phone=excluded.phone,
				email=excluded.email,
				address=excluded.address,
				note=excluded.note,
				ownerUserId=excluded.ownerUserId,
				createdAt=excluded.createdAt,
				updatedAt=excluded.updatedAt
			WHERE excluded.updatedAt > suppliers.updatedAt`,
			*row.ID, row.Name, row.Phone, row.Email, row.Address, row.Note,
			ownerID, createdAt, updatedAt)
	})
}

/* --------------------------------- HTTP --------------------------------- */

func (c *SyncClient) postBatch(ctx context.Context, path string, batch any) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal upload batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(msg))
	}

	var ack uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("failed to decode upload response: %w", err)
	}
	if !ack.OK {
		return fmt.Errorf("server rejected upload: %s", ack.Message)
	}
	return nil
}

func (c *SyncClient) getJSON(ctx context.Context, path string, since *string, out any) error {
	u := c.BaseURL + path
	if since != nil && *since != "" {
		u += "?since=" + url.QueryEscape(*since)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode download response: %w", err)
	}
	return nil
}

func (c *SyncClient) authorize(ctx context.Context, req *http.Request) error {
	if c.Token == nil {
		return nil
	}
	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
