// Package history records generation runs and their state transitions in
// SQLite so drift can be detected across runs and past runs inspected.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run matches a query.
var ErrRunNotFound = errors.New("history: run not found")

// Run is one recorded generation run.
type Run struct {
	ID                  string    `json:"id"`
	SourceURL           string    `json:"source_url"`
	SnapshotFingerprint string    `json:"snapshot_fingerprint"`
	StructureHash       string    `json:"structure_hash,omitempty"`
	State               string    `json:"state"`
	Outcome             string    `json:"outcome,omitempty"`
	OutputDir           string    `json:"output_dir,omitempty"`
	Documents           int       `json:"documents"`
	Stubs               int       `json:"stubs"`
	Error               string    `json:"error,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at,omitzero"`
}

// Transition is one state change of a run.
type Transition struct {
	RunID  string    `json:"run_id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Store persists runs.
type Store interface {
	BeginRun(ctx context.Context, run Run) error
	RecordTransition(ctx context.Context, t Transition) error
	FinishRun(ctx context.Context, run Run) error
	// Latest returns the most recent run, optionally for one source URL.
	Latest(ctx context.Context, sourceURL string) (*Run, error)
	// ByFingerprint returns the most recent finished run with a structure
	// hash for the given snapshot fingerprint.
	ByFingerprint(ctx context.Context, fingerprint string) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Transitions(ctx context.Context, runID string) ([]Transition, error)
	Close() error
}
