package commands

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.home.luguber.info/inful/adocs/internal/config"
	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/history"
	"git.home.luguber.info/inful/adocs/internal/pipeline"
)

const descriptorYAML = `source_url: https://github.com/acme/crm
name: crm
description: A customer relationship management service.
languages: [Go]
databases: [PostgreSQL]
topics:
  - Architecture
  - title: CRM Features
    subtopics: [Contacts]
`

func writeDescriptor(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descriptor.yaml")
	if err := os.WriteFile(path, []byte(descriptorYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietGlobal() *Global {
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRunInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adocs.yaml")
	if err := RunInit(path, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	err := RunInit(path, false)
	if !foundation.HasCategory(err, foundation.CategoryConfig) {
		t.Fatalf("expected config error for existing file, got %v", err)
	}
}

func TestResolveRequiresSource(t *testing.T) {
	_, cleanup, err := SourceFlags{}.Resolve(t.Context(), config.Default())
	defer cleanup()
	if code := foundation.NewCLIErrorAdapter(false, nil).ExitCodeFor(err); code != 2 {
		t.Fatalf("exit code %d, want 2 (%v)", code, err)
	}
}

func TestRunGenerateFromDescriptor(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Directory = t.TempDir()
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Monitoring.Metrics = config.MonitoringMetrics{Enabled: true, TextfilePath: filepath.Join(t.TempDir(), "adocs.prom")}

	res, err := RunGenerate(t.Context(), cfg, SourceFlags{Descriptor: writeDescriptor(t)}, quietGlobal())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.State != pipeline.StateDone {
		t.Fatalf("state %s", res.State)
	}
	for _, name := range []string{"README.md", "crm-features.md", "contacts.md"} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Directory, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	prom, err := os.ReadFile(cfg.Monitoring.Metrics.TextfilePath)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), "adocs_") {
		t.Fatalf("metrics textfile has no adocs series")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()
	var out bytes.Buffer
	if err := (&HistoryCmd{Latest: true}).print(t.Context(), &out, store); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), res.RunID) || !strings.Contains(out.String(), "Assembling -> Done") {
		t.Fatalf("unexpected history output:\n%s", out.String())
	}
	out.Reset()
	if err := (&HistoryCmd{Limit: 5}).print(t.Context(), &out, store); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), "https://github.com/acme/crm") {
		t.Fatalf("unexpected history list:\n%s", out.String())
	}
}

func TestOutcomeErrorForCanceledRun(t *testing.T) {
	if err := outcomeError(&pipeline.Result{Outcome: pipeline.OutcomeSuccess}); err != nil {
		t.Fatalf("success must not error: %v", err)
	}
	err := outcomeError(&pipeline.Result{RunID: "r", Outcome: pipeline.OutcomeCanceled})
	if code := foundation.NewCLIErrorAdapter(false, nil).ExitCodeFor(err); code != 130 {
		t.Fatalf("exit code %d, want 130", code)
	}
}
