// Package ledger keeps a local SQLite history of synthsales command runs.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 20

// ErrClosed is returned when the ledger is used after Close.
var ErrClosed = errors.New("ledger is closed")

// Run is one recorded command invocation.
type Run struct {
	ID        string
	Command   string
	StartedAt time.Time
	Duration  time.Duration
	Status    string
	// Detail is a short human-readable outcome, e.g. "1/3 batches failed".
	Detail string
}

// Ledger wraps the run history database.
type Ledger struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the ledger database at path and ensures the schema.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, logger: logger.With().Str("component", "ledger").Logger()}
	if err = l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.logger.Debug().Str("path", path).Msg("ledger opened")
	return l, nil
}

func (l *Ledger) initSchema(ctx context.Context) error {
	const query = `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		command     TEXT NOT NULL,
		started_at  INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		status      TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
	`
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initialising ledger schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Record inserts run, assigning an ID when it has none, and returns the stored run.
func (l *Ledger) Record(ctx context.Context, run Run) (Run, error) {
	if l.db == nil {
		return run, ErrClosed
	}
	if run.ID == "" {
		run.ID = ulid.Make().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	const query = `INSERT INTO runs (id, command, started_at, duration_ns, status, detail) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, query,
		run.ID, run.Command, run.StartedAt.UnixNano(), int64(run.Duration), run.Status, run.Detail)
	if err != nil {
		return run, fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	l.logger.Debug().Str("run_id", run.ID).Str("command", run.Command).Str("status", run.Status).Msg("run recorded")
	return run, nil
}

// List returns up to limit runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `SELECT id, command, started_at, duration_ns, status, detail
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt int64
			duration  int64
		)
		if err = rows.Scan(&run.ID, &run.Command, &startedAt, &duration, &run.Status, &run.Detail); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt)
		run.Duration = time.Duration(duration)
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
