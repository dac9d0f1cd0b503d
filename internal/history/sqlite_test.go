package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.BeginRun(ctx, Run{ID: "r1", SourceURL: "https://github.com/acme/crm", SnapshotFingerprint: "fp", State: "Planning", StartedAt: start}))
	require.NoError(t, s.RecordTransition(ctx, Transition{RunID: "r1", From: "Planning", To: "ContentFetch", At: start.Add(time.Second)}))
	require.NoError(t, s.RecordTransition(ctx, Transition{RunID: "r1", From: "ContentFetch", To: "Done", At: start.Add(2 * time.Second), Detail: "ok"}))
	require.NoError(t, s.FinishRun(ctx, Run{ID: "r1", StructureHash: "hash", State: "Done", Outcome: "success", Documents: 7, FinishedAt: start.Add(3 * time.Second)}))

	latest, err := s.Latest(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "r1", latest.ID)
	require.Equal(t, "hash", latest.StructureHash)
	require.Equal(t, 7, latest.Documents)
	require.Equal(t, start, latest.StartedAt)

	transitions, err := s.Transitions(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	require.Equal(t, "Done", transitions[1].To)
	require.Equal(t, "ok", transitions[1].Detail)
}

func TestByFingerprintIgnoresUnfinishedRuns(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "a", SourceURL: "u", SnapshotFingerprint: "fp", State: "Planning", StartedAt: base}))
	require.NoError(t, s.FinishRun(ctx, Run{ID: "a", StructureHash: "h1", State: "Done", FinishedAt: base.Add(time.Second)}))
	require.NoError(t, s.BeginRun(ctx, Run{ID: "b", SourceURL: "u", SnapshotFingerprint: "fp", State: "Planning", StartedAt: base.Add(time.Minute)}))

	r, err := s.ByFingerprint(ctx, "fp")
	require.NoError(t, err)
	require.Equal(t, "a", r.ID)

	_, err = s.ByFingerprint(ctx, "other")
	require.True(t, errors.Is(err, ErrRunNotFound))

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "b", runs[0].ID)
}

func TestLatestFiltersBySource(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	base := time.Now().UTC()
	require.NoError(t, s.BeginRun(ctx, Run{ID: "a", SourceURL: "one", SnapshotFingerprint: "x", State: "Done", StartedAt: base}))
	require.NoError(t, s.BeginRun(ctx, Run{ID: "b", SourceURL: "two", SnapshotFingerprint: "y", State: "Done", StartedAt: base.Add(time.Second)}))
	r, err := s.Latest(ctx, "one")
	require.NoError(t, err)
	require.Equal(t, "a", r.ID)
}

func TestFinishUnknownRun(t *testing.T) {
	s := openMemory(t)
	require.ErrorIs(t, s.FinishRun(t.Context(), Run{ID: "missing"}), ErrRunNotFound)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(t.Context(), Run{ID: "a", SourceURL: "u", SnapshotFingerprint: "f", State: "Planning", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	r, err := s.Latest(t.Context(), "u")
	require.NoError(t, err)
	require.Equal(t, "a", r.ID)
}
