package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every stage.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeySlug       = "slug"
	KeyTitle      = "title"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyPath       = "path"
	KeyRepo       = "repository"
	KeyWorker     = "worker"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyProvider   = "provider"
	KeyError      = "error"
)

func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func State(s string) slog.Attr       { return slog.String(KeyState, s) }
func Slug(s string) slog.Attr        { return slog.String(KeySlug, s) }
func Title(s string) slog.Attr       { return slog.String(KeyTitle, s) }
func Attempt(n int) slog.Attr        { return slog.Int(KeyAttempt, n) }
func Status(s string) slog.Attr      { return slog.String(KeyStatus, s) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Repository(r string) slog.Attr  { return slog.String(KeyRepo, r) }
func Worker(id int) slog.Attr        { return slog.Int(KeyWorker, id) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Provider(name string) slog.Attr { return slog.String(KeyProvider, name) }

// Duration renders d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
