package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/adocs/internal/assembler"
)

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to RunState
		ok       bool
	}{
		{StatePlanning, StateContentFetch, true},
		{StateContentFetch, StateLinking, true},
		{StateLinking, StateAssembling, true},
		{StateAssembling, StateDone, true},
		{StatePlanning, StateFailed, true},
		{StateAssembling, StateFailed, true},
		{StatePlanning, StateLinking, false},
		{StateContentFetch, StateDone, false},
		{StateLinking, StateContentFetch, false},
		{StateDone, StateFailed, false},
		{StateFailed, StatePlanning, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestClassifyStageResult(t *testing.T) {
	if se, res, abort := classifyStageResult(StateLinking, nil); se != nil || res != StageResultSuccess || abort {
		t.Fatalf("nil error must succeed")
	}
	_, res, abort := classifyStageResult(StateLinking, newWarnStageError(StateLinking, errTest))
	if res != StageResultWarning || abort {
		t.Fatalf("warning must not abort")
	}
	se, res, abort := classifyStageResult(StateAssembling, errTest)
	if res != StageResultFatal || !abort || se.Stage != StateAssembling {
		t.Fatalf("plain errors are fatal, got %v %v", res, abort)
	}
	_, res, abort = classifyStageResult(StatePlanning, newCanceledStageError(StatePlanning, errTest))
	if res != StageResultCanceled || !abort {
		t.Fatalf("canceled must abort")
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestReportOutcome(t *testing.T) {
	r := newRunReport("id", "src", "static", testTime)
	r.State = StateDone
	r.DeriveOutcome(false)
	if r.Outcome != OutcomeSuccess {
		t.Fatalf("got %s", r.Outcome)
	}
	r.AddIssue(IssueContentDegraded, StateContentFetch, "warning", "stub")
	r.DeriveOutcome(false)
	if r.Outcome != OutcomeWarning {
		t.Fatalf("got %s", r.Outcome)
	}
	r.DeriveOutcome(true)
	if r.Outcome != OutcomeCanceled {
		t.Fatalf("got %s", r.Outcome)
	}
	r.State = StateFailed
	r.DeriveOutcome(false)
	if r.Outcome != OutcomeFailed {
		t.Fatalf("got %s", r.Outcome)
	}
}

func TestReportPersistRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := newRunReport("id", "src", "static", testTime)
	r.State = StateDone
	r.End = testTime.Add(time.Second)
	r.DeriveOutcome(false)
	if err := r.Persist(&assembler.Writer{}, dir); err != nil {
		t.Fatalf("persist: %v", err)
	}
	loaded, err := LoadReport(dir)
	if err != nil || loaded == nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RunID != "id" || loaded.Outcome != OutcomeSuccess {
		t.Fatalf("unexpected report: %+v", loaded)
	}
	txt, err := os.ReadFile(filepath.Join(dir, ReportTextFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(txt) != r.Summary()+"\n" {
		t.Fatalf("summary %q", txt)
	}
}
