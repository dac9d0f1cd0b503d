package sets

import (
	"slices"
	"testing"
)

func TestSetBasics(t *testing.T) {
	s := New("Go", "Docker")
	s.Add("Go", "Redis")
	if len(s) != 3 {
		t.Fatalf("len = %d, want 3", len(s))
	}
	if !s.Has("Redis") || s.Has("Rust") {
		t.Fatalf("membership wrong: %v", s)
	}
	s.Delete("Redis")
	if s.Has("Redis") {
		t.Fatalf("delete failed")
	}
}

func TestSortedIsDeterministic(t *testing.T) {
	s := New("b", "c", "a")
	for range 5 {
		if got := Sorted(s); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Fatalf("Sorted = %v", got)
		}
	}
	if got := Sorted(New[string]()); len(got) != 0 {
		t.Fatalf("empty set should sort to empty slice, got %v", got)
	}
}
