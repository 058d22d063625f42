package core

// CommandType discriminates messages on the observer→core command channel.
type CommandType string

const (
	// CommandGoal starts a new run with the command's Text as the goal.
	CommandGoal CommandType = "goal"
	// CommandStop cancels the active run, if any.
	CommandStop CommandType = "stop"
)

// Command is a message sent by the observer (front-end, CLI) to the core.
type Command struct {
	Type CommandType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// StepResult is the outcome of a single observe→ask→act cycle and decides
// whether the orchestrator issues another step.
type StepResult int

const (
	// StepContinue means the step executed and the loop should proceed.
	StepContinue StepResult = iota
	// StepDone means the model signaled completion of the goal.
	StepDone
	// StepFailed means the step failed and the run must end.
	StepFailed
	// StepStopped means cancellation was observed during the step.
	StepStopped
)

// String returns the string representation of the step result.
func (r StepResult) String() string {
	switch r {
	case StepContinue:
		return "continue"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	case StepStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunState describes the lifecycle of an orchestration run.
type RunState int

const (
	// RunIdle means no run has been started.
	RunIdle RunState = iota
	// RunActive means the background worker is executing steps.
	RunActive
	// RunCompleted means the model signaled completion.
	RunCompleted
	// RunFailed means a step failed and ended the run.
	RunFailed
	// RunStopped means the operator cancelled the run.
	RunStopped
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunActive:
		return "active"
	case RunCompleted:
		return "completed"
	case RunFailed:
		return "failed"
	case RunStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is a terminal run state.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunStopped
}
