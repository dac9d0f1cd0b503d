package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adocs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Concurrency != 4 || cfg.Generation.MaxAttempts != 2 {
		t.Fatalf("generation defaults = %+v", cfg.Generation)
	}
	if cfg.Generation.RetryBackoff != RetryBackoffLinear {
		t.Fatalf("retry backoff = %s", cfg.Generation.RetryBackoff)
	}
	if cfg.Generation.Timeout() != time.Minute {
		t.Fatalf("timeout = %v", cfg.Generation.Timeout())
	}
	if cfg.Planner.MaxDepth != 2 {
		t.Fatalf("max depth = %d", cfg.Planner.MaxDepth)
	}
	if cfg.Author.Provider != AuthorStatic {
		t.Fatalf("provider = %s", cfg.Author.Provider)
	}
	if cfg.Output.Directory != "./docs" || cfg.Output.FilenameStyle != FilenameSlug {
		t.Fatalf("output defaults = %+v", cfg.Output)
	}
	if cfg.Watch.DebounceDuration() != 2*time.Second {
		t.Fatalf("debounce = %v", cfg.Watch.DebounceDuration())
	}
}

func TestLoadExpandsEnvAndNormalizes(t *testing.T) {
	t.Setenv("ADOCS_TEST_KEY", "secret-key")
	cfg, err := Load(writeConfig(t, strings.Join([]string{
		`version: "1"`,
		`generation:`,
		`  retry_backoff: EXPONENTIAL`,
		`  concurrency: 8`,
		`author:`,
		`  provider: Gemini`,
		`  api_key: ${ADOCS_TEST_KEY}`,
		`output:`,
		`  filename_style: Title`,
		`monitoring:`,
		`  logging:`,
		`    level: WARNING`,
		`    format: JSON`,
		`planner:`,
		`  topics:`,
		`    - title: "  Architecture "`,
		`      subtopics:`,
		`        - title: Components`,
		`        - title: "   "`,
		`    - title: ""`,
		"",
	}, "\n")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.RetryBackoff != RetryBackoffExponential || cfg.Generation.Concurrency != 8 {
		t.Fatalf("generation = %+v", cfg.Generation)
	}
	if cfg.Author.Provider != AuthorGemini || cfg.Author.APIKey != "secret-key" || cfg.Author.Model != DefaultGeminiModel {
		t.Fatalf("author = %+v", cfg.Author)
	}
	if cfg.Output.FilenameStyle != FilenameTitle {
		t.Fatalf("filename style = %s", cfg.Output.FilenameStyle)
	}
	if cfg.Monitoring.Logging.Level != LogLevelWarn || cfg.Monitoring.Logging.Format != LogFormatJSON {
		t.Fatalf("logging = %+v", cfg.Monitoring.Logging)
	}
	if len(cfg.Planner.Topics) != 1 || cfg.Planner.Topics[0].Title != "Architecture" || len(cfg.Planner.Topics[0].Subtopics) != 1 {
		t.Fatalf("topics = %+v", cfg.Planner.Topics)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"version":          "version: \"2.0\"\n",
		"gemini no key":    "version: \"1\"\nauthor:\n  provider: gemini\n",
		"bad duration":     "version: \"1\"\ngeneration:\n  request_timeout: soon\n",
		"initial over max": "version: \"1\"\ngeneration:\n  retry_initial_delay: 1m\n  retry_max_delay: 1s\n",
		"depth":            "version: \"1\"\nplanner:\n  max_depth: 3\n",
		"publish":          "version: \"1\"\npublish:\n  endpoint: localhost:9000\n",
		"events":           "version: \"1\"\nevents:\n  url: nats://localhost:4222\n",
		"interval":         "version: \"1\"\nwatch:\n  interval: 10s\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestInitRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adocs.yaml")
	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatalf("second Init without force should fail")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init with force: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Init: %v", err)
	}
	if len(cfg.Planner.Topics) != 2 || cfg.Events == nil {
		t.Fatalf("example config not preserved: %+v", cfg)
	}
}

func TestNewLoggerHonoursVerbose(t *testing.T) {
	var sb strings.Builder
	logger := MonitoringLogging{Level: LogLevelError}.NewLogger(&sb, true)
	logger.Debug("visible")
	if !strings.Contains(sb.String(), "visible") {
		t.Fatalf("verbose should force debug level, got %q", sb.String())
	}
}
