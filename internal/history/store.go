// Package history keeps a SQLite log of resolved path tables so runs can be
// listed and compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded resolution.
type Run struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Fingerprint string        `json:"fingerprint"`
	Routes      int           `json:"routes"`
	Outcome     string        `json:"outcome"`
	Table       pathmap.Table `json:"table,omitempty"`
}

// Store persists runs in SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the store. Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		routes INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		route_table BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record stores table as a new run and returns it.
func (s *Store) Record(ctx context.Context, table pathmap.Table, outcome string) (Run, error) {
	payload, err := json.Marshal(table)
	if err != nil {
		return Run{}, fmt.Errorf("marshal table: %w", err)
	}
	run := Run{
		ID:          uuid.NewString(),
		CreatedAt:   s.now().UTC(),
		Fingerprint: table.Fingerprint(),
		Routes:      len(table),
		Outcome:     outcome,
		Table:       table.Clone(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, created_at, fingerprint, routes, outcome, route_table) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.CreatedAt.UnixNano(), run.Fingerprint, run.Routes, run.Outcome, payload,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first, without their tables.
// A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT run_id, created_at, fingerprint, routes, outcome FROM runs ORDER BY seq DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Fingerprint, &r.Routes, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns a run with its table.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	return s.getOne(ctx, "SELECT run_id, created_at, fingerprint, routes, outcome, route_table FROM runs WHERE run_id = ?", id)
}

// Latest returns the most recent run with its table. ok is false when the
// store is empty.
func (s *Store) Latest(ctx context.Context) (run Run, ok bool, err error) {
	run, err = s.getOne(ctx, "SELECT run_id, created_at, fingerprint, routes, outcome, route_table FROM runs ORDER BY seq DESC LIMIT 1")
	if errors.Is(err, ErrRunNotFound) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r Run
	var created int64
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&r.ID, &created, &r.Fingerprint, &r.Routes, &r.Outcome, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal(payload, &r.Table); err != nil {
		return Run{}, fmt.Errorf("unmarshal table for run %s: %w", r.ID, err)
	}
	return r, nil
}
