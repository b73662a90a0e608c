// Package recording persists the raw event stream of a session to SQLite so
// a run can be audited or replayed into a fresh state aggregate afterwards.
package recording

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ibex-tudelft/econagent/internal/events"
)

// Store is an append-only event log. One Store instance records one run,
// identified by a fresh UUID; the same database file accumulates runs.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	runID string
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT    NOT NULL,
		ts         TEXT    NOT NULL,
		game_id    INTEGER NOT NULL,
		event_type TEXT    NOT NULL,
		payload    TEXT    NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_se_run ON session_events(run_id, id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	return &Store{db: db, runID: uuid.NewString()}, nil
}

// RunID identifies the run this Store instance records into.
func (s *Store) RunID() string { return s.runID }

// Record appends one event to the log. Payloads are stored as JSON text.
func (s *Store) Record(evt events.Event) error {
	payload, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO session_events (run_id, ts, game_id, event_type, payload) VALUES (?, ?, ?, ?, ?)`,
		s.runID, ts.UTC().Format(time.RFC3339Nano), evt.GameID, string(evt.Type), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events loads a run's events in recorded (arrival) order.
func (s *Store) Events(ctx context.Context, runID string) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, game_id, event_type, payload FROM session_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			tsText    string
			gameID    int
			eventType string
			payload   string
		)
		if err := rows.Scan(&tsText, &gameID, &eventType, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsText)

		out = append(out, events.Event{
			Type:      events.Type(eventType),
			GameID:    gameID,
			Timestamp: ts,
			Data:      data,
		})
	}
	return out, rows.Err()
}

// Runs lists the recorded run IDs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM session_events GROUP BY run_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
