package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)

// ProvisioningError is returned when a pack environment could not be built,
// either because the manifest is malformed or a dependency failed to install.
type ProvisioningError struct {
	Pack string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("could not provision environment for pack %q: %s", e.Pack, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// EntryPointNotFoundError is returned when an action entry point can't be resolved.
type EntryPointNotFoundError struct {
	Path string
	Err  error
}

func (e *EntryPointNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("entry point %q not found", e.Path)
	}
	return fmt.Sprintf("entry point %q not found: %s", e.Path, e.Err)
}

func (e *EntryPointNotFoundError) Unwrap() error { return e.Err }

// ExecutionError is returned when the action subprocess exits with a non-zero code.
// Result holds the captured output.
type ExecutionError struct {
	Result *ExecutionResult
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action exited with code %d: %s", e.Result.ExitCode, lastLine(e.Result.Stderr))
}

// ResultParseError is returned when the final output line of the action is not a
// valid result payload. Result holds the captured output.
type ResultParseError struct {
	Line   string
	Result *ExecutionResult
	Err    error
}

func (e *ResultParseError) Error() string {
	return fmt.Sprintf("could not parse action result %q: %s", e.Line, e.Err)
}

func (e *ResultParseError) Unwrap() error { return e.Err }

// ExecutionTimeoutError is returned when the action exceeds its execution timeout.
// Result holds the output captured until the subprocess was killed.
type ExecutionTimeoutError struct {
	Timeout time.Duration
	Result  *ExecutionResult
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("action timed out after %s", e.Timeout)
}

func lastLine(s string) string {
	lines := splitNonEmptyLines(s)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
