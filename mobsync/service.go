// Package mobsync implements the server half of the mobdev inventory
// system's offline-first synchronization: the Postgres-backed sync service
// that receives full-tenant upload batches, applies the newer-wins merge
// with category/supplier resolution, serves delta downloads bounded by a
// server-trusted clock, and derives stock alerts organization-wide.
// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actor is the authenticated identity attached to every sync request:
// the user, the organization they act for, their role, and the device the
// request originated from.
type Actor struct {
	UserID   string
	OrgID    int64
	Role     string
	DeviceID string
}

// ServiceConfig holds configuration for the sync service.
type ServiceConfig struct {
	AppName            string // connection/app tag for logs
	MaxUploadBatchSize int    // max rows per upload request (0 = unlimited)
}

// SyncService provides the server-side sync operations over a Postgres pool.
type SyncService struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	config *ServiceConfig
}

// NewSyncService creates a sync service and initializes the database schema.
func NewSyncService(pool *pgxpool.Pool, config *ServiceConfig, logger *slog.Logger) (*SyncService, error) {
	if config == nil {
		config = &ServiceConfig{AppName: "mobdev-inventory"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	service := &SyncService{
		pool:   pool,
		logger: logger,
		config: config,
	}

	ctx := context.Background()
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return service.initializeSchemaInTx(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug("sync service schema initialized", "app", config.AppName)

	return service, nil
}

// Pool exposes the underlying pool for callers that need direct queries
// (e.g. test fixtures and the example server's seed path).
func (s *SyncService) Pool() *pgxpool.Pool {
	return s.pool
}
