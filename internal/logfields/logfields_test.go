package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestStringHelpers(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{RunID("r1"), KeyRunID, "r1"},
		{Stage("linking"), KeyStage, "linking"},
		{State("done"), KeyState, "done"},
		{Slug("crm-features"), KeySlug, "crm-features"},
		{Title("CRM Features"), KeyTitle, "CRM Features"},
		{Status("stub"), KeyStatus, "stub"},
		{Path("/tmp/out"), KeyPath, "/tmp/out"},
		{Repository("https://example.com/r"), KeyRepo, "https://example.com/r"},
		{Provider("gemini"), KeyProvider, "gemini"},
	}
	for _, c := range cases {
		if c.attr.Key != c.key {
			t.Fatalf("key = %s, want %s", c.attr.Key, c.key)
		}
		if c.attr.Value.String() != c.val {
			t.Fatalf("%s value = %s, want %s", c.key, c.attr.Value.String(), c.val)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Attempt(2); a.Key != KeyAttempt || a.Value.Int64() != 2 {
		t.Fatalf("attempt attr = %v", a)
	}
	if a := Worker(3); a.Key != KeyWorker || a.Value.Int64() != 3 {
		t.Fatalf("worker attr = %v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("duration = %v", a.Value.Float64())
	}
}

func TestErrorHelper(t *testing.T) {
	if Error(nil).Value.String() != "" {
		t.Fatalf("nil error should render empty")
	}
	if Error(errors.New("boom")).Value.String() != "boom" {
		t.Fatalf("error text not preserved")
	}
}
