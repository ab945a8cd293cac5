// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ClientAuthenticator extracts the authenticated actor from HTTP requests.
// Implementations should validate auth (e.g., JWT) before returning.
type ClientAuthenticator interface {
	GetActor(r *http.Request) (Actor, error)
}

// Backend is the service surface the HTTP handlers talk to. *SyncService
// satisfies it; tests substitute a fake.
type Backend interface {
	ProcessUpload(ctx context.Context, actor Actor, rows []ProductRow) (int, error)
	ProcessDownload(ctx context.Context, actor Actor, since *time.Time) ([]ProductRow, error)
	ProcessSupplierUpload(ctx context.Context, actor Actor, rows []SupplierRow) (int, error)
	ProcessSupplierDelta(ctx context.Context, actor Actor, since *time.Time) ([]SupplierRow, error)
}

// HTTPSyncHandlers provides HTTP handlers for the two-way sync API.
type HTTPSyncHandlers struct {
	backend       Backend
	authenticator ClientAuthenticator
	logger        *slog.Logger
}

// NewHTTPSyncHandlers creates a new instance of sync handlers.
func NewHTTPSyncHandlers(backend Backend, authenticator ClientAuthenticator, logger *slog.Logger) *HTTPSyncHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSyncHandlers{
		backend:       backend,
		authenticator: authenticator,
		logger:        logger,
	}
}

// RegisterRoutes attaches the sync endpoints to a mux.
func (h *HTTPSyncHandlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sync/upload", h.HandleUpload)
	mux.HandleFunc("/sync/download", h.HandleDownload)
	mux.HandleFunc("/suppliers/bulkUpsert", h.HandleSupplierBulkUpsert)
	mux.HandleFunc("/suppliers/delta", h.HandleSupplierDelta)
}

// HandleUpload processes a full-tenant product batch.
func (h *HTTPSyncHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed")
		return
	}

	actor, err := h.authenticator.GetActor(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	var rows []ProductRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse upload body")
		return
	}

	applied, err := h.backend.ProcessUpload(r.Context(), actor, rows)
	if err != nil {
		h.writeServiceError(w, err, "upload_failed", actor)
		return
	}

	h.writeJSON(w, AckResponse{OK: true, Count: applied})
}

// HandleDownload serves the product delta since the client's watermark.
func (h *HTTPSyncHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	actor, err := h.authenticator.GetActor(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	since, ok := h.parseSince(w, r)
	if !ok {
		return
	}

	data, err := h.backend.ProcessDownload(r.Context(), actor, since)
	if err != nil {
		h.writeServiceError(w, err, "download_failed", actor)
		return
	}

	h.writeJSON(w, ProductDownloadResponse{OK: true, Data: data})
}

// HandleSupplierBulkUpsert processes a supplier batch.
func (h *HTTPSyncHandlers) HandleSupplierBulkUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed")
		return
	}

	actor, err := h.authenticator.GetActor(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	var rows []SupplierRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse upload body")
		return
	}

	applied, err := h.backend.ProcessSupplierUpload(r.Context(), actor, rows)
	if err != nil {
		h.writeServiceError(w, err, "upload_failed", actor)
		return
	}

	h.writeJSON(w, AckResponse{OK: true, Count: applied})
}

// HandleSupplierDelta serves the supplier delta since the client's watermark.
func (h *HTTPSyncHandlers) HandleSupplierDelta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	actor, err := h.authenticator.GetActor(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	since, ok := h.parseSince(w, r)
	if !ok {
		return
	}

	data, err := h.backend.ProcessSupplierDelta(r.Context(), actor, since)
	if err != nil {
		h.writeServiceError(w, err, "download_failed", actor)
		return
	}

	h.writeJSON(w, SupplierDeltaResponse{OK: true, Data: data})
}

// parseSince reads the optional since query parameter. A missing or empty
// value means a full download; an unparseable one is a client error.
func (h *HTTPSyncHandlers) parseSince(w http.ResponseWriter, r *http.Request) (*time.Time, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, true
	}
	t, err := ParseWireTime(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "since must be an RFC3339 timestamp")
		return nil, false
	}
	return &t, true
}

// writeServiceError maps service errors to HTTP statuses.
func (h *HTTPSyncHandlers) writeServiceError(w http.ResponseWriter, err error, fallbackCode string, actor Actor) {
	switch {
	case errors.Is(err, ErrBadPayload):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrForbidden):
		h.writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
	default:
		h.logger.Error("sync request failed", "error", err,
			"org", actor.OrgID, "user", actor.UserID, "device", actor.DeviceID)
		h.writeError(w, http.StatusInternalServerError, fallbackCode, "Internal error")
	}
}

func (h *HTTPSyncHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a standardized error response.
func (h *HTTPSyncHandlers) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{
		OK:      false,
		Error:   errorCode,
		Message: message,
	})

	h.logger.Debug("HTTP error response",
		"status_code", statusCode,
		"error_code", errorCode,
		"message", message)
}
