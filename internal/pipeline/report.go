package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/adocs/internal/assembler"
	"git.home.luguber.info/inful/adocs/internal/content"
	"git.home.luguber.info/inful/adocs/internal/history"
	"git.home.luguber.info/inful/adocs/internal/version"
)

// Report file names in the output directory.
const (
	ReportJSONFile = "run-report.json"
	ReportTextFile = "run-report.txt"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
type ReportIssueCode string

const (
	IssueMetadataIncomplete ReportIssueCode = "METADATA_INCOMPLETE"
	IssueStructureDrift     ReportIssueCode = "STRUCTURE_DRIFT"
	IssueStructureIntegrity ReportIssueCode = "STRUCTURE_INTEGRITY"
	IssueContentDegraded    ReportIssueCode = "CONTENT_DEGRADED"
	IssueDanglingLinks      ReportIssueCode = "DANGLING_LINKS"
	IssueWriteFailure       ReportIssueCode = "WRITE_FAILURE"
	IssuePublishFailure     ReportIssueCode = "PUBLISH_FAILURE"
	IssueHistoryFailure     ReportIssueCode = "HISTORY_FAILURE"
	IssueCanceled           ReportIssueCode = "RUN_CANCELED"
	IssueGenericStageError  ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// ReportIssue is a structured problem encountered during the run.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Stage    RunState        `json:"stage"`
	Severity string          `json:"severity"` // error|warning
	Message  string          `json:"message"`
}

// DocumentEntry describes one written document.
type DocumentEntry struct {
	Path        string         `json:"path"`
	Slug        string         `json:"slug"`
	Status      content.Status `json:"status"`
	Fingerprint string         `json:"fingerprint"`
	Changed     bool           `json:"changed"`
}

// RunReport captures what one run did.
type RunReport struct {
	SchemaVersion       int                      `json:"schema_version"`
	RunID               string                   `json:"run_id"`
	SourceURL           string                   `json:"source_url"`
	GeneratorVersion    string                   `json:"generator_version"`
	Author              string                   `json:"author"`
	Start               time.Time                `json:"start"`
	End                 time.Time                `json:"end"`
	State               RunState                 `json:"state"`
	Outcome             Outcome                  `json:"outcome"`
	SnapshotFingerprint string                   `json:"snapshot_fingerprint"`
	StructureHash       string                   `json:"structure_hash,omitempty"`
	Transitions         []history.Transition     `json:"transitions"`
	StageDurations      map[string]time.Duration `json:"stage_durations"`
	StageResults        map[string]StageResult   `json:"stage_results"`
	Content             content.Summary          `json:"content"`
	Documents           []DocumentEntry          `json:"documents"`
	Removed             []string                 `json:"removed,omitempty"`
	Excluded            []string                 `json:"excluded,omitempty"`
	Issues              []ReportIssue            `json:"issues"`
	Published           bool                     `json:"published"`
	Error               string                   `json:"error,omitempty"`
}

func newRunReport(runID, sourceURL, author string, start time.Time) *RunReport {
	return &RunReport{
		SchemaVersion:    1,
		RunID:            runID,
		SourceURL:        sourceURL,
		GeneratorVersion: version.Version,
		Author:           author,
		Start:            start,
		StageDurations:   map[string]time.Duration{},
		StageResults:     map[string]StageResult{},
		Issues:           []ReportIssue{},
		Documents:        []DocumentEntry{},
	}
}

// AddIssue appends a structured issue.
func (r *RunReport) AddIssue(code ReportIssueCode, stage RunState, severity, msg string) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg})
}

// Stubs counts stub documents.
func (r *RunReport) Stubs() int { return r.Content.Stub }

// Changed counts documents whose fingerprint differs from the previous run.
func (r *RunReport) Changed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Changed {
			n++
		}
	}
	return n
}

// DeriveOutcome sets the outcome from the final state and recorded issues.
// canceled marks a run whose content fetch was interrupted.
func (r *RunReport) DeriveOutcome(canceled bool) {
	switch {
	case r.State == StateFailed && canceled:
		r.Outcome = OutcomeCanceled
	case r.State == StateFailed:
		r.Outcome = OutcomeFailed
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.hasWarnings():
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *RunReport) hasWarnings() bool {
	for _, i := range r.Issues {
		if i.Severity == "warning" {
			return true
		}
	}
	return false
}

// Summary returns a human-readable single-line summary.
func (r *RunReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("run=%s state=%s outcome=%s documents=%d complete=%d partial=%d stub=%d changed=%d issues=%d duration=%s",
		r.RunID, r.State, r.Outcome, len(r.Documents), r.Content.Complete, r.Content.Partial, r.Content.Stub,
		r.Changed(), len(r.Issues), dur.Truncate(time.Millisecond))
}

// Persist writes the JSON report and the text summary into root through w.
func (r *RunReport) Persist(w *assembler.Writer, root string) error {
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	return w.WriteFiles(root, map[string][]byte{
		ReportJSONFile: jb,
		ReportTextFile: []byte(r.Summary() + "\n"),
	})
}

// LoadReport reads the report in root. A missing report returns (nil, nil).
func LoadReport(root string) (*RunReport, error) {
	// #nosec G304 -- root is the configured output directory.
	data, err := os.ReadFile(filepath.Join(root, ReportJSONFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
