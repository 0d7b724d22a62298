// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sqlite opens SQLite pools with the PRAGMAs every nmrcfg store
// relies on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines standard SQLite operational parameters.
type Config struct {
	BusyTimeout time.Duration
	// MaxOpenConns is 1 for stores written by one process at a time, which
	// is how the checkpoint ledger is used by the training harness.
	MaxOpenConns int
}

// DefaultConfig returns the configuration used by the checkpoint ledger.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// DSN builds a modernc.org/sqlite connection string that applies the
// mandatory PRAGMAs to every connection in the pool.
// Format: file:path?_pragma=foo(bar)&_pragma=baz(qux)
func DSN(dbPath string, cfg Config) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, cfg.BusyTimeout.Milliseconds())
}

// Open initializes a SQLite connection pool with WAL mode, busy_timeout,
// synchronous=NORMAL and foreign keys. The parent directory is created.
func Open(ctx context.Context, dbPath string, cfg Config) (*sql.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	// Connection Pool Invariants
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	// Connectivity Check
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}

// Migration is one forward schema step, applied when PRAGMA user_version is
// below Version.
type Migration struct {
	Version int
	SQL     string
}

// Migrate applies the pending migrations in one transaction each and bumps
// user_version after every step.
func Migrate(ctx context.Context, db *sql.DB, migrations []Migration) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("sqlite: migration %d: %w", m.Version, err)
		}
		current = m.Version
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return err
	}
	return tx.Commit()
}

// UserVersion returns the schema version stored in the database.
func UserVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
