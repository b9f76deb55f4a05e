package main

import (
	"context"
	"log/slog"

	"footage/internal/ledger"
	"footage/internal/logging"
)

// runRecorder journals one command run. A recorder without a store records
// nothing, so callers never branch on ledger availability.
type runRecorder struct {
	store  *ledger.Store
	runID  string
	logger *slog.Logger
}

func beginRun(ctx context.Context, store *ledger.Store, logger *slog.Logger, runID, kind string, options map[string]any) *runRecorder {
	rec := &runRecorder{store: store, runID: runID, logger: logger}
	if store == nil {
		return rec
	}
	if _, err := store.BeginRun(ctx, runID, kind, options); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in footage history"))
		rec.store = nil
	}
	return rec
}

func (r *runRecorder) finish(ctx context.Context, status string, counters map[string]int, events []ledger.Event) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordEvents(ctx, r.runID, events); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run events", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "per-file history for this run is incomplete"))
	}
	if err := r.store.FinishRun(ctx, r.runID, status, counters); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run finish", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked as running in footage history"))
	}
}

// runStatus derives the ledger status from success and failure counts.
func runStatus(succeeded, failed int) string {
	switch {
	case failed == 0:
		return ledger.StatusSucceeded
	case succeeded > 0:
		return ledger.StatusPartial
	default:
		return ledger.StatusFailed
	}
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
