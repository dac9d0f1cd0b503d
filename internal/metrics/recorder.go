package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for runs, stages and content requests.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string)
	ObserveContentRequest(d time.Duration, success bool)
	IncContentRetry()
	IncContentStatus(status string) // complete|partial|stub
	SetFanoutConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) ObserveRunDuration(time.Duration)              {}
func (NoopRecorder) IncRunOutcome(string)                          {}
func (NoopRecorder) ObserveContentRequest(time.Duration, bool)     {}
func (NoopRecorder) IncContentRetry()                              {}
func (NoopRecorder) IncContentStatus(string)                       {}
func (NoopRecorder) SetFanoutConcurrency(int)                      {}
