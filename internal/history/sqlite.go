package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath. Use ":memory:"
// for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		snapshot_fingerprint TEXT NOT NULL,
		structure_hash TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT '',
		output_dir TEXT NOT NULL DEFAULT '',
		documents INTEGER NOT NULL DEFAULT 0,
		stubs INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_url, started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(snapshot_fingerprint, started_at);
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		at INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun inserts a new run.
func (s *SQLiteStore) BeginRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_url, snapshot_fingerprint, state, output_dir, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceURL, run.SnapshotFingerprint, run.State, run.OutputDir, run.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordTransition appends a state change.
func (s *SQLiteStore) RecordTransition(ctx context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (run_id, from_state, to_state, at, detail) VALUES (?, ?, ?, ?, ?)`,
		t.RunID, t.From, t.To, t.At.UnixNano(), t.Detail,
	); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE runs SET state = ? WHERE id = ?`, t.To, t.RunID); err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return nil
}

// FinishRun stores the final fields of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET snapshot_fingerprint = COALESCE(NULLIF(?, ''), snapshot_fingerprint), structure_hash = ?, state = ?, outcome = ?, documents = ?, stubs = ?, error = ?, finished_at = ? WHERE id = ?`,
		run.SnapshotFingerprint, run.StructureHash, run.State, run.Outcome, run.Documents, run.Stubs, run.Error, run.FinishedAt.UnixNano(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `id, source_url, snapshot_fingerprint, structure_hash, state, outcome, output_dir, documents, stubs, error, started_at, finished_at`

// Latest returns the most recent run.
func (s *SQLiteStore) Latest(ctx context.Context, sourceURL string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if sourceURL != "" {
		query += ` WHERE source_url = ?`
		args = append(args, sourceURL)
	}
	query += ` ORDER BY started_at DESC LIMIT 1`
	return s.one(ctx, query, args...)
}

// ByFingerprint returns the most recent run of fingerprint that recorded a structure hash.
func (s *SQLiteStore) ByFingerprint(ctx context.Context, fingerprint string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.one(ctx,
		`SELECT `+runColumns+` FROM runs WHERE snapshot_fingerprint = ? AND structure_hash != '' ORDER BY started_at DESC LIMIT 1`,
		fingerprint)
}

// List returns up to limit runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Transitions returns the state changes of a run in order.
func (s *SQLiteStore) Transitions(ctx context.Context, runID string) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, from_state, to_state, at, detail FROM transitions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	var out []Transition
	for rows.Next() {
		var t Transition
		var at int64
		if err := rows.Scan(&t.RunID, &t.From, &t.To, &at, &t.Detail); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.At = time.Unix(0, at).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) one(ctx context.Context, query string, args ...any) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate rows: %w", err)
		}
		return nil, ErrRunNotFound
	}
	return scanRun(rows)
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (*Run, error) {
	var r Run
	var started, finished int64
	if err := row.Scan(&r.ID, &r.SourceURL, &r.SnapshotFingerprint, &r.StructureHash, &r.State, &r.Outcome,
		&r.OutputDir, &r.Documents, &r.Stubs, &r.Error, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished > 0 {
		r.FinishedAt = time.Unix(0, finished).UTC()
	}
	return &r, nil
}
