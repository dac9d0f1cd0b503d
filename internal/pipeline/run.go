package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/adocs/internal/assembler"
	"git.home.luguber.info/inful/adocs/internal/content"
	"git.home.luguber.info/inful/adocs/internal/history"
	"git.home.luguber.info/inful/adocs/internal/linker"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/metrics"
	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

// ErrInvalidTransition is returned when the state machine is asked for a
// move it does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// runState carries everything one run produces as it moves through the stages.
type runState struct {
	id       string
	state    RunState
	logger   *slog.Logger
	recorder metrics.Recorder
	history  history.Store
	report   *RunReport
	now      func() time.Time

	// detached is set once ContentFetch was canceled; the remaining stages
	// then run without the caller's cancellation.
	detached bool
	canceled bool

	desc       repometa.Descriptor
	outDir     string
	snapshot   string
	meta       *repometa.Metadata
	tree       *structure.Tree
	blocks     map[string]content.Block
	resolution *linker.Resolution
	docs       []assembler.Document
	written    *assembler.WriteResult
	previous   map[string]string // path -> fingerprint of the previous run
}

// transition moves the state machine and records the change in the report
// and the history store.
func (rs *runState) transition(ctx context.Context, to RunState, detail string) error {
	from := rs.state
	if from == "" {
		if to != StatePlanning && to != StateFailed {
			return fmt.Errorf("%w: start -> %s", ErrInvalidTransition, to)
		}
	} else if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	rs.state = to
	tr := history.Transition{RunID: rs.id, From: string(from), To: string(to), At: rs.now().UTC(), Detail: detail}
	rs.report.Transitions = append(rs.report.Transitions, tr)
	rs.report.State = to
	rs.logger.Debug("State transition", "from", string(from), logfields.State(string(to)))
	if rs.history != nil {
		if err := rs.history.RecordTransition(context.WithoutCancel(ctx), tr); err != nil {
			rs.logger.Warn("Failed to record transition", logfields.Error(err))
		}
	}
	return nil
}

// recordStage stores timing and outcome of one stage.
func (rs *runState) recordStage(state RunState, dur time.Duration, se *StageError, result StageResult) {
	rs.report.StageDurations[string(state)] = dur
	rs.report.StageResults[string(state)] = result
	rs.recorder.ObserveStageDuration(string(state), dur)
	rs.recorder.IncStageResult(string(state), result.label())
	if se == nil {
		return
	}
	severity := "error"
	if se.Kind == StageErrorWarning {
		severity = "warning"
	}
	rs.report.AddIssue(issueCodeFor(se), state, severity, se.Err.Error())
}

func issueCodeFor(se *StageError) ReportIssueCode {
	var (
		incomplete *repometa.MetadataIncompleteError
		integrity  *linker.StructureIntegrityError
		dangling   *linker.DanglingLinksError
		write      *assembler.FileWriteError
	)
	switch {
	case se.Kind == StageErrorCanceled, errors.Is(se.Err, context.Canceled), errors.Is(se.Err, context.DeadlineExceeded):
		return IssueCanceled
	case errors.As(se.Err, &incomplete):
		return IssueMetadataIncomplete
	case errors.Is(se.Err, errContentDegraded):
		return IssueContentDegraded
	case errors.Is(se.Err, ErrStructureDrift):
		return IssueStructureDrift
	case errors.As(se.Err, &integrity):
		return IssueStructureIntegrity
	case errors.As(se.Err, &dangling):
		return IssueDanglingLinks
	case errors.As(se.Err, &write):
		return IssueWriteFailure
	default:
		return IssueGenericStageError
	}
}
