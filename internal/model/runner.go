package model

// RunnerState is the lifecycle state of an action runner.
type RunnerState string

const (
	RunnerStateCreated   RunnerState = "created"
	RunnerStatePreRun    RunnerState = "prerun"
	RunnerStateRunning   RunnerState = "running"
	RunnerStateCompleted RunnerState = "completed"
	RunnerStateFailed    RunnerState = "failed"
)

// IsTerminal returns true when no more transitions are allowed.
func (s RunnerState) IsTerminal() bool {
	return s == RunnerStateCompleted || s == RunnerStateFailed
}
