package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

func sampleTree(t *testing.T) *structure.Tree {
	t.Helper()
	meta, err := repometa.Extract(repometa.Descriptor{SourceURL: "https://github.com/acme/crm", Description: "CRM"}, time.Now())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	tree, err := structure.NewPlanner(2).Plan(meta, []structure.Topic{
		{Title: "Architecture", Subtopics: []structure.Topic{{Title: "Components"}}},
		{Title: "Getting Started"},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return tree
}

func TestManifestRoundTripRebuildsTree(t *testing.T) {
	tree := sampleTree(t)
	m := New(tree, map[string]string{"index": "README.md"}, "slug", "snap", nil)

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.StructureHash != tree.Hash() {
		t.Fatalf("structure hash = %s, want %s", got.StructureHash, tree.Hash())
	}
	if rebuilt := got.Tree(); rebuilt.Hash() != tree.Hash() {
		t.Fatalf("rebuilt tree hash differs")
	}
	again, _ := got.ToJSON()
	if !bytes.Equal(data, again) {
		t.Fatalf("manifest encoding is not stable")
	}
}

func TestManifestIdenticalForSameSnapshot(t *testing.T) {
	a, _ := New(sampleTree(t), nil, "slug", "snap", nil).ToJSON()
	b, _ := New(sampleTree(t), nil, "slug", "snap", nil).ToJSON()
	if !bytes.Equal(a, b) {
		t.Fatalf("manifests differ:\n%s\n%s", a, b)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	if err != nil || m != nil {
		t.Fatalf("missing manifest should be (nil, nil), got %v %v", m, err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(`{"schema_version": 9}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected schema error")
	}
}
