package core

// AgentState is the run state of one agent instance. Transitions are driven
// exclusively by the agent's step loop:
//
//	idle → running → {finished | terminated | errored}
type AgentState int

const (
	// StateIdle is the initial state before a run is accepted.
	StateIdle AgentState = iota
	// StateRunning is re-entered once per step until a terminal state is
	// reached or the step budget is exhausted.
	StateRunning
	// StateFinished means the termination tool completed the task.
	StateFinished
	// StateTerminated means the step budget was exhausted before finishing;
	// the last partial result is surfaced, not an error.
	StateTerminated
	// StateErrored means a step failed at the state-machine level.
	StateErrored
)

// String returns the lowercase name of the state.
func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateTerminated:
		return "terminated"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the run.
func (s AgentState) Terminal() bool {
	return s == StateFinished || s == StateTerminated || s == StateErrored
}
