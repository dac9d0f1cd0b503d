package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/metrics"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage RunState
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage RunState, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage RunState, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage RunState, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult is the normalized result of one stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

func (r StageResult) label() metrics.ResultLabel {
	switch r {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultCanceled:
		return metrics.ResultCanceled
	case StageResultFatal:
		return metrics.ResultFatal
	default:
		return metrics.ResultSuccess
	}
}

// stageDef is one work stage of the run.
type stageDef struct {
	State RunState
	Fn    func(ctx context.Context, rs *runState) error
}

// classifyStageResult converts a raw stage error into a result and whether
// the run must abort. Errors that are not StageErrors are fatal.
func classifyStageResult(stage RunState, err error) (*StageError, StageResult, bool) {
	if err == nil {
		return nil, StageResultSuccess, false
	}
	var se *StageError
	if !errors.As(err, &se) {
		se = newFatalStageError(stage, err)
	}
	switch se.Kind {
	case StageErrorWarning:
		return se, StageResultWarning, false
	case StageErrorCanceled:
		return se, StageResultCanceled, true
	default:
		return se, StageResultFatal, true
	}
}

// runStages executes stages in order, moving the state machine, recording
// timing and stopping on the first fatal or canceled stage.
func runStages(ctx context.Context, rs *runState, stages []stageDef) error {
	for _, st := range stages {
		if err := rs.transition(ctx, st.State, ""); err != nil {
			return newFatalStageError(st.State, err)
		}
		if err := ctx.Err(); err != nil && !rs.detached {
			se := newCanceledStageError(st.State, err)
			rs.recordStage(st.State, 0, se, StageResultCanceled)
			return se
		}
		stageCtx := ctx
		if rs.detached {
			stageCtx = context.WithoutCancel(ctx)
		}
		t0 := time.Now()
		err := st.Fn(stageCtx, rs)
		dur := time.Since(t0)
		se, result, abort := classifyStageResult(st.State, err)
		rs.recordStage(st.State, dur, se, result)
		rs.logger.Info("Stage finished", logfields.Stage(string(st.State)), logfields.Status(string(result)), logfields.Duration(dur))
		if abort {
			return se
		}
	}
	return nil
}

// classify makes sure a failed run carries an error category for the CLI
// exit code mapping.
func classify(se *StageError) error {
	if se == nil {
		return nil
	}
	if se.Kind == StageErrorCanceled {
		return foundation.WrapError(se, foundation.CategoryCanceled, "run canceled").Build()
	}
	if _, ok := foundation.AsClassified(se); ok {
		return se
	}
	category := foundation.CategoryInternal
	switch se.Stage {
	case StatePlanning, StateLinking:
		category = foundation.CategoryStructure
	case StateAssembling:
		category = foundation.CategoryAssembly
	}
	return foundation.WrapError(se, category, fmt.Sprintf("%s failed", se.Stage)).Fatal().Build()
}
