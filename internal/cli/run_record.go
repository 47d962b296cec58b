package cli

import (
	"context"
	"errors"
	"time"

	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/ledger"
	"github.com/rshade/synthsales/internal/logging"
)

// runRecord tracks one command invocation for the run ledger.
type runRecord struct {
	command string
	start   time.Time
}

// newRunRecord starts timing a command.
func newRunRecord(command string) *runRecord {
	return &runRecord{command: command, start: time.Now()}
}

// finish writes the outcome to the ledger when it is enabled. Ledger failures are
// logged and never change the command result.
func (r *runRecord) finish(ctx context.Context, detail string, runErr error) {
	cfg := config.FromContext(ctx)
	if !cfg.Ledger.Enabled {
		return
	}
	log := logging.FromContext(ctx)

	run := ledger.Run{
		Command:   r.command,
		StartedAt: r.start,
		Duration:  time.Since(r.start),
		Status:    ledger.StatusSucceeded,
		Detail:    detail,
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		run.Status = ledger.StatusCancelled
	case runErr != nil:
		run.Status = ledger.StatusFailed
		if detail == "" {
			run.Detail = runErr.Error()
		}
	}

	// The command context may already be cancelled.
	recordCtx := context.WithoutCancel(ctx)
	l, err := ledger.Open(recordCtx, cfg.Ledger.Path, *log)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Ledger.Path).Msg("run ledger unavailable")
		return
	}
	defer l.Close()

	if _, err = l.Record(recordCtx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}
}
