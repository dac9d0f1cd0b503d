package pipeline

// RunState is the state of one regeneration run.
type RunState string

const (
	StatePlanning     RunState = "Planning"
	StateContentFetch RunState = "ContentFetch"
	StateLinking      RunState = "Linking"
	StateAssembling   RunState = "Assembling"
	StateDone         RunState = "Done"
	StateFailed       RunState = "Failed"
)

var nextState = map[RunState]RunState{
	StatePlanning:     StateContentFetch,
	StateContentFetch: StateLinking,
	StateLinking:      StateAssembling,
	StateAssembling:   StateDone,
}

// CanTransition reports whether the run may move from s to to. Failed is
// reachable from every non-terminal state.
func (s RunState) CanTransition(to RunState) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[s] == to
}

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool { return s == StateDone || s == StateFailed }

// Outcome summarises how a run ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeCanceled Outcome = "canceled"
	OutcomeFailed   Outcome = "failed"
)
