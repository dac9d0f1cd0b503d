package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryFileSystem, "write README.md").
		Fatal().
		WithContext("path", "README.md").
		Build()

	if err.Category() != CategoryFileSystem {
		t.Fatalf("category = %s", err.Category())
	}
	if !err.IsFatal() {
		t.Fatalf("expected fatal severity")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("cause not reachable via errors.Is")
	}
	if v, ok := err.Context().GetString("path"); !ok || v != "README.md" {
		t.Fatalf("context path = %q, %v", v, ok)
	}
	if !strings.Contains(err.Error(), "[filesystem:fatal] write README.md: disk full") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestAsClassifiedFollowsWrapChain(t *testing.T) {
	inner := NewError(CategoryStructure, "orphan").Warning().Build()
	wrapped := fmt.Errorf("linking: %w", inner)

	got, ok := AsClassified(wrapped)
	if !ok || got != inner {
		t.Fatalf("AsClassified did not unwrap: %v %v", got, ok)
	}
	if !HasCategory(wrapped, CategoryStructure) {
		t.Fatalf("HasCategory = false")
	}
	if GetSeverity(wrapped) != SeverityWarning {
		t.Fatalf("severity = %s", GetSeverity(wrapped))
	}
	if GetCategory(stderrors.New("plain")) != CategoryInternal {
		t.Fatalf("plain errors should default to internal")
	}
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryContent, "timeout").Build()
	derived := base.WithContext("slug", "crm-features")
	if _, ok := base.Context().Get("slug"); ok {
		t.Fatalf("original error mutated")
	}
	if v, _ := derived.Context().GetString("slug"); v != "crm-features" {
		t.Fatalf("derived slug = %q", v)
	}
}

func TestRetryClassification(t *testing.T) {
	if !IsRetryable(NetworkError("reset").Build()) {
		t.Fatalf("network errors should be retryable")
	}
	if IsRetryable(ConfigError("bad").Build()) {
		t.Fatalf("config errors should not be retryable")
	}
	if NewError(CategoryAuthoring, "quota").UserAction().Build().CanRetry() {
		t.Fatalf("user action errors must not retry")
	}
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"metadata", NewError(CategoryMetadata, "no signals").Fatal().Build(), 3},
		{"structure", NewError(CategoryStructure, "duplicate slug").Build(), 4},
		{"config", ConfigError("bad yaml").Build(), 7},
		{"git", GitError("clone").Build(), 8},
		{"assembly", NewError(CategoryAssembly, "write").Build(), 11},
		{"canceled", NewError(CategoryCanceled, "interrupted").Build(), 130},
		{"wrapped", fmt.Errorf("run: %w", ConfigError("x").Build()), 7},
		{"plain", stderrors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCLIErrorAdapterReport(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	code := adapter.Report(&out, NewError(CategoryMetadata, "no repository signals").
		Fatal().WithContext("repository", "https://example.com/r").Build())
	if code != 3 {
		t.Fatalf("code = %d", code)
	}
	if got := out.String(); got != "Error: no repository signals (metadata)\n" {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(logs.String(), "repository=https://example.com/r") {
		t.Fatalf("context missing from log: %s", logs.String())
	}
}
