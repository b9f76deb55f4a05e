package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"footage/internal/services"
)

// Run kinds.
const (
	KindPlan     = "plan"
	KindTransfer = "transfer"
	KindCatalog  = "catalog"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one invocation of plan, transfer or catalog.
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Options    map[string]any
	Counters   map[string]int
}

// Event is the per-file outcome recorded for a run.
type Event struct {
	ID         int64
	RunID      string
	RecordedAt time.Time
	Path       string
	Outcome    string
	Detail     string
}

// Store is the SQLite run journal.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// BeginRun records the start of a run. An empty id is replaced with a new one.
func (s *Store) BeginRun(ctx context.Context, id, kind string, options map[string]any) (Run, error) {
	if id == "" {
		id = NewRunID()
	}
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, services.Wrap(services.ErrValidation, "ledger", "begin run", "run id must be a UUID", err)
	}
	optionsJSON, err := marshalNullable(options)
	if err != nil {
		return Run{}, err
	}
	started := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, started_at, status, options_json) VALUES (?, ?, ?, ?, ?)`,
		id, kind, started.Format(timeLayout), StatusRunning, optionsJSON)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return Run{ID: id, Kind: kind, StartedAt: started, Status: StatusRunning, Options: options}, nil
}

// RecordEvents appends per-file outcomes in one transaction.
func (s *Store) RecordEvents(ctx context.Context, runID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin events tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, recorded_at, path, outcome, detail) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(timeLayout)
	for _, event := range events {
		if _, err := stmt.ExecContext(ctx, runID, now, event.Path, event.Outcome, nullableString(event.Detail)); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}
	return nil
}

// FinishRun stamps the end of a run with its final status and counters.
func (s *Store) FinishRun(ctx context.Context, runID, status string, counters map[string]int) error {
	countersJSON, err := marshalNullable(counters)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, counters_json = ? WHERE id = ?`,
		s.now().UTC().Format(timeLayout), status, countersJSON, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "ledger", "finish run", runID, nil)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, finished_at, status, options_json, counters_json
         FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by id or unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, finished_at, status, options_json, counters_json
         FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`, id, id+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, services.Wrap(services.ErrNotFound, "ledger", "get run", id, nil)
	case 1:
		return found[0], nil
	default:
		return Run{}, services.Wrap(services.ErrValidation, "ledger", "get run", "ambiguous run id prefix "+id, nil)
	}
}

// Events returns the events of a run in insertion order.
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, recorded_at, path, outcome, detail FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return scanEvents(rows)
}

// PathHistory returns every event recorded for a source or placeholder path.
func (s *Store) PathHistory(ctx context.Context, path string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, recorded_at, path, outcome, detail FROM events WHERE path = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("path history: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event    Event
			recorded string
			detail   sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.RunID, &recorded, &event.Path, &event.Outcome, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.RecordedAt = parseTime(recorded)
		event.Detail = detail.String
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run          Run
		started      string
		finished     sql.NullString
		optionsJSON  sql.NullString
		countersJSON sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Kind, &started, &finished, &run.Status, &optionsJSON, &countersJSON); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	if optionsJSON.Valid && optionsJSON.String != "" {
		if err := json.Unmarshal([]byte(optionsJSON.String), &run.Options); err != nil {
			return Run{}, fmt.Errorf("decode run options: %w", err)
		}
	}
	if countersJSON.Valid && countersJSON.String != "" {
		if err := json.Unmarshal([]byte(countersJSON.String), &run.Counters); err != nil {
			return Run{}, fmt.Errorf("decode run counters: %w", err)
		}
	}
	return run, nil
}

func marshalNullable(v any) (any, error) {
	switch value := v.(type) {
	case map[string]any:
		if len(value) == 0 {
			return nil, nil
		}
	case map[string]int:
		if len(value) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Duration is the run's wall time, or the time since start while running.
func (r Run) Duration(now time.Time) time.Duration {
	if r.FinishedAt.IsZero() {
		return now.Sub(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
