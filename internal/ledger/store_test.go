package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"footage/internal/ledger"
	"footage/internal/services"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(context.Background(), filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "", ledger.KindPlan, map[string]any{"dry_run": true, "timezone": "UTC"})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" || run.Status != ledger.StatusRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	events := []ledger.Event{
		{Path: "/raw/dji/a.mp4", Outcome: "planned", Detail: "video/2024-10-15"},
		{Path: "/raw/dji/b.mp4", Outcome: "failed"},
		{Path: "/raw/dji/a.mp4", Outcome: "note"},
	}
	if err := store.RecordEvents(ctx, run.ID, events); err != nil {
		t.Fatalf("RecordEvents: %v", err)
	}
	if err := store.FinishRun(ctx, run.ID, ledger.StatusPartial, map[string]int{"planned": 1, "failed": 1}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	got := runs[0]
	if got.Status != ledger.StatusPartial || got.Counters["planned"] != 1 || got.FinishedAt.IsZero() {
		t.Fatalf("unexpected finished run %+v", got)
	}
	if got.Options["timezone"] != "UTC" {
		t.Fatalf("expected options round trip, got %+v", got.Options)
	}

	recorded, err := store.Events(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recorded) != 3 || recorded[0].Detail != "video/2024-10-15" || recorded[1].Detail != "" {
		t.Fatalf("unexpected events %+v", recorded)
	}

	history, err := store.PathHistory(ctx, "/raw/dji/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected two events for path, got %d", len(history))
	}

	byPrefix, err := store.GetRun(ctx, run.ID[:8])
	if err != nil || byPrefix.ID != run.ID {
		t.Fatalf("GetRun by prefix: %+v %v", byPrefix, err)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), ledger.NewRunID(), ledger.StatusSucceeded, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBeginRunRejectsBadID(t *testing.T) {
	store := openStore(t)
	if _, err := store.BeginRun(context.Background(), "not-a-uuid", ledger.KindTransfer, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()
	store, err := ledger.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	run, err := store.BeginRun(ctx, "", ledger.KindCatalog, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := ledger.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetRun(ctx, run.ID); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}
