package execution

// State represents workflow execution state.
type State string

const (
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
)

// IsTerminal returns true when the execution can no longer progress.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateErrored
}
