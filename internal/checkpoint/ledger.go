// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/nmrcfg/internal/persistence/sqlite"
)

// LedgerFile is the ledger database name inside savedir.
const LedgerFile = "checkpoints.db"

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned for run ids the ledger does not know.
var ErrRunNotFound = errors.New("run not found")

var migrations = []sqlite.Migration{
	{Version: 1, SQL: `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		metric TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS slots (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		slot INTEGER NOT NULL,
		epoch INTEGER NOT NULL,
		loss REAL NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (run_id, slot)
	);
	`},
	{Version: 2, SQL: `
	ALTER TABLE runs ADD COLUMN tag TEXT NOT NULL DEFAULT '';
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`},
}

// Run is one training run tracked by the ledger.
type Run struct {
	ID          string
	Metric      string
	Capacity    int
	Tag         string
	Fingerprint string
	CreatedAt   time.Time
}

// Ledger persists keeper slots so retention survives separate invocations.
type Ledger struct {
	DB  *sql.DB
	dir string
}

// OpenLedger opens (creating if needed) the ledger in savedir.
func OpenLedger(ctx context.Context, savedir string) (*Ledger, error) {
	db, err := sqlite.Open(ctx, filepath.Join(savedir, LedgerFile), sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint ledger: %w", err)
	}
	return &Ledger{DB: db, dir: savedir}, nil
}

// Dir returns the directory the ledger and its checkpoints live in.
func (l *Ledger) Dir() string { return l.dir }

// Close closes the database.
func (l *Ledger) Close() error { return l.DB.Close() }

// RunSpec describes a run to register.
type RunSpec struct {
	// ID is the run id; empty draws a new UUID.
	ID          string
	Metric      string
	Capacity    int
	Tag         string
	Fingerprint string
}

// CreateRun registers a new run.
func (l *Ledger) CreateRun(ctx context.Context, spec RunSpec) (Run, error) {
	if _, err := NewKeeper(l.dir, spec.Capacity, spec.Metric); err != nil {
		return Run{}, err
	}
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	run := Run{
		ID:          spec.ID,
		Metric:      spec.Metric,
		Capacity:    spec.Capacity,
		Tag:         spec.Tag,
		Fingerprint: spec.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := l.DB.ExecContext(ctx,
		`INSERT INTO runs (id, metric, capacity, tag, fingerprint, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Metric, run.Capacity, run.Tag, run.Fingerprint, run.CreatedAt.Format(timeLayout))
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// GetRun returns the run with id. An empty id means the most recent run.
func (l *Ledger) GetRun(ctx context.Context, id string) (Run, error) {
	query := `SELECT id, metric, capacity, tag, fingerprint, created_at FROM runs `
	var row *sql.Row
	if id == "" {
		row = l.DB.QueryRowContext(ctx, query+`ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	} else {
		row = l.DB.QueryRowContext(ctx, query+`WHERE id = ?`, id)
	}
	var (
		run     Run
		created string
	)
	err := row.Scan(&run.ID, &run.Metric, &run.Capacity, &run.Tag, &run.Fingerprint, &created)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, created)
	return run, nil
}

// Runs returns every run, newest first.
func (l *Ledger) Runs(ctx context.Context) ([]Run, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT id, metric, capacity, tag, fingerprint, created_at FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			run     Run
			created string
		)
		if err := rows.Scan(&run.ID, &run.Metric, &run.Capacity, &run.Tag, &run.Fingerprint, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Slots returns the stored slots of a run in slot order, padded with empty
// slots up to the run capacity.
func (l *Ledger) Slots(ctx context.Context, run Run) ([]Slot, error) {
	return querySlots(ctx, l.DB, run)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySlots(ctx context.Context, q querier, run Run) ([]Slot, error) {
	slots := make([]Slot, run.Capacity)
	for i := range slots {
		slots[i] = Slot{Loss: math.Inf(1)}
	}
	rows, err := q.QueryContext(ctx, `SELECT slot, epoch, loss, path FROM slots WHERE run_id = ? ORDER BY slot`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			idx int
			s   Slot
		)
		if err := rows.Scan(&idx, &s.Epoch, &s.Loss, &s.Path); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if idx < 0 || idx >= len(slots) {
			return nil, fmt.Errorf("slot %d outside capacity %d", idx, run.Capacity)
		}
		slots[idx] = s
	}
	return slots, rows.Err()
}

// Keeper returns a keeper restored from the run's slots.
func (l *Ledger) Keeper(ctx context.Context, run Run) (*Keeper, error) {
	k, err := NewKeeper(l.dir, run.Capacity, run.Metric)
	if err != nil {
		return nil, err
	}
	k.SetTag(run.Tag)
	slots, err := l.Slots(ctx, run)
	if err != nil {
		return nil, err
	}
	if err := k.Restore(slots); err != nil {
		return nil, err
	}
	return k, nil
}

// Offer offers an epoch to the run's keeper and stores the updated slot in
// one transaction.
func (l *Ledger) Offer(ctx context.Context, run Run, epoch int, loss float64) (Decision, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return Decision{}, err
	}
	defer func() { _ = tx.Rollback() }()

	slots, err := querySlots(ctx, tx, run)
	if err != nil {
		return Decision{}, err
	}
	k, err := NewKeeper(l.dir, run.Capacity, run.Metric)
	if err != nil {
		return Decision{}, err
	}
	k.SetTag(run.Tag)
	if err := k.Restore(slots); err != nil {
		return Decision{}, err
	}

	d := k.Offer(ctx, epoch, loss)
	if !d.Kept {
		return d, nil
	}

	s := k.Slots()[d.Slot]
	_, err = tx.ExecContext(ctx, `
	INSERT INTO slots (run_id, slot, epoch, loss, path) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id, slot) DO UPDATE SET
		epoch = excluded.epoch,
		loss = excluded.loss,
		path = excluded.path
	`, run.ID, d.Slot, s.Epoch, s.Loss, s.Path)
	if err != nil {
		return Decision{}, fmt.Errorf("store slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Decision{}, fmt.Errorf("commit slot: %w", err)
	}
	return d, nil
}
