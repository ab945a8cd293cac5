// Package mobsqlite implements the on-device half of the mobdev inventory
// system: a SQLite-backed local store with tenant-scoped repositories, an
// idempotent schema migrator, the bidirectional sync client that reconciles
// the local dataset with the central server, and the alert deriver that
// materializes low-stock and expiry notifications from the merged state.
// Copyright 2026 Uygar Gocmen
// SPDX-License-Identifier: Apache-2.0

package mobsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	_ "github.com/mattn/go-sqlite3"
)

// Store executes parameterized SQL against the on-device embedded database.
// It is the single choke point every other component goes through: the
// migrator, the repositories and the sync client never touch *sql.DB
// directly.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger
}

// OpenStore opens (or creates) the SQLite database at path and prepares it
// for use. The connection is limited to a single open conn because SQLite is
// a single-writer resource and the repositories and the sync client share it.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	store, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing database handle. Enables WAL mode and foreign
// keys, matching what the mobile runtime does on startup.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Query runs a read statement and returns the result set as one map per row,
// keyed by column name. BLOB/text columns come back as strings, NULLs as nil.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.DB.QueryContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

// Exec runs a write statement. The result is discarded; callers that need
// the affected-row count use ExecAffecting.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.DB.ExecContext(ctx, query, normalizeArgs(args)...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// ExecAffecting runs a write statement and reports how many rows it touched.
func (s *Store) ExecAffecting(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.DB.ExecContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Tx scopes a multi-statement atomic unit. It intentionally exposes the same
// Query/Exec surface as Store so repository code reads identically inside and
// outside a transaction.
type Tx struct {
	tx *sql.Tx
}

// Query runs a read statement inside the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := t.tx.QueryContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

// Exec runs a write statement inside the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := t.tx.ExecContext(ctx, query, normalizeArgs(args)...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// ExecAffecting runs a write statement inside the transaction and reports the
// affected-row count.
func (t *Tx) ExecAffecting(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, normalizeArgs(args)...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// WithTx runs fn inside a BEGIN/COMMIT scope. Any error from fn (or a panic)
// rolls the whole unit back, so a crash mid-operation never leaves a compound
// write half applied.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// normalizeArgs converts typed-nil pointers to an explicit SQL NULL. The
// embedded driver rejects some typed nils that naturally occur when optional
// DTO fields are passed straight through as *string / *int64.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a == nil {
			out[i] = nil
			continue
		}
		v := reflect.ValueOf(a)
		if v.Kind() == reflect.Ptr && v.IsNil() {
			out[i] = nil
			continue
		}
		out[i] = a
	}
	return out
}

// collectRows scans every remaining row into a map keyed by column name.
func collectRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = val
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}
