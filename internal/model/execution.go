package model

import (
	"errors"
	"strings"
	"time"
)

// ExecutionRequest is a single action invocation handled by the execution sandbox.
type ExecutionRequest struct {
	// EntryPoint is the absolute path to the action script.
	EntryPoint string
	// Params are serialized as JSON and passed to the action on stdin.
	Params map[string]any
	// SandboxEnabled gives the pack environment libraries resolution precedence.
	SandboxEnabled bool
	// Timeout bounds the execution, zero uses the executor default.
	Timeout time.Duration
	// Env contains additional environment variables for the action.
	Env map[string]string
}

// ExecutionResult is the outcome of an action subprocess.
type ExecutionResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Result is the structured value parsed from the final stdout line.
	Result any
}

// ExecutionStatus is the final status of a persisted execution.
type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ErrorKind classifies why an execution failed.
type ErrorKind string

const (
	ErrorKindProvisioning ErrorKind = "provisioning"
	ErrorKindEntryPoint   ErrorKind = "entrypoint"
	ErrorKindExecution    ErrorKind = "execution"
	ErrorKindResultParse  ErrorKind = "result_parse"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindInternal     ErrorKind = "internal"
)

// KindOf returns the error kind of an execution error chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var (
		provErr    *ProvisioningError
		entryErr   *EntryPointNotFoundError
		execErr    *ExecutionError
		parseErr   *ResultParseError
		timeoutErr *ExecutionTimeoutError
	)
	switch {
	case errors.As(err, &provErr):
		return ErrorKindProvisioning
	case errors.As(err, &entryErr):
		return ErrorKindEntryPoint
	case errors.As(err, &execErr):
		return ErrorKindExecution
	case errors.As(err, &parseErr):
		return ErrorKindResultParse
	case errors.As(err, &timeoutErr):
		return ErrorKindTimeout
	}

	return ErrorKindInternal
}

// OutputOf returns the captured subprocess output carried by an execution error, if any.
func OutputOf(err error) *ExecutionResult {
	var (
		execErr    *ExecutionError
		parseErr   *ResultParseError
		timeoutErr *ExecutionTimeoutError
	)
	switch {
	case errors.As(err, &execErr):
		return execErr.Result
	case errors.As(err, &parseErr):
		return parseErr.Result
	case errors.As(err, &timeoutErr):
		return timeoutErr.Result
	}

	return nil
}

// Execution is the persisted record of an action run.
type Execution struct {
	ID             string
	Pack           string
	Action         string
	EntryPoint     string
	SandboxEnabled bool
	Status         ExecutionStatus
	ErrorKind      ErrorKind
	Error          string
	ExitCode       int
	Result         any
	Stdout         string
	Stderr         string
	StartedAt      time.Time
	FinishedAt     time.Time
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
