package lib

import (
	"errors"
	"time"

	"github.com/slok/packrun/internal/model"
)

var (
	// ErrNotFound is returned when a pack, environment or execution does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
)

// Environment is the isolated dependency environment of a pack.
type Environment struct {
	Pack string
	// Path is the environment root directory.
	Path string
	// LibraryPath is the directory with the installed libraries.
	LibraryPath string
	// Requirements are the installed dependency specifiers.
	Requirements []string
	CreatedAt    time.Time
}

// ExecutionStatus is the final status of an action execution.
type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ErrorKind tells why an execution failed.
type ErrorKind string

const (
	// ErrorKindProvisioning means the pack environment could not be created.
	ErrorKindProvisioning ErrorKind = "provisioning"
	// ErrorKindEntryPoint means the entry point doesn't exist in the pack actions.
	ErrorKindEntryPoint ErrorKind = "entrypoint"
	// ErrorKindExecution means the action exited with a non zero code.
	ErrorKindExecution ErrorKind = "execution"
	// ErrorKindResultParse means the action output is not a JSON result.
	ErrorKindResultParse ErrorKind = "result_parse"
	// ErrorKindTimeout means the action didn't finish in time.
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindInternal ErrorKind = "internal"
)

// Execution is the stored record of an action run.
type Execution struct {
	// ID is the unique identifier (ULID).
	ID             string
	Pack           string
	Action         string
	EntryPoint     string
	SandboxEnabled bool
	Status         ExecutionStatus
	// ErrorKind is empty for successful executions.
	ErrorKind ErrorKind
	Error     string
	ExitCode  int
	// Result is the JSON value printed by the action on its last output line.
	Result     any
	Stdout     string
	Stderr     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunOpts configures an action run.
type RunOpts struct {
	// Pack is the pack name (required).
	Pack string
	// EntryPoint is the action script relative to the pack actions directory (required).
	EntryPoint string
	// Params are passed as a JSON object on the action stdin.
	Params map[string]any
	// DisableSandbox runs the action with the platform-global libraries only.
	DisableSandbox bool
	// Timeout of the action, zero uses the default.
	Timeout time.Duration
	// Env are additional environment variables for the action.
	Env map[string]string
}

// CheckStatus is the status of a preflight check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusError   CheckStatus = "error"
)

// CheckResult is the result of a single preflight check.
type CheckResult struct {
	ID      string
	Message string
	Status  CheckStatus
}

func fromInternalEnvironment(e model.Environment) Environment {
	return Environment{
		Pack:         e.Pack,
		Path:         e.Path,
		LibraryPath:  e.LibraryPath,
		Requirements: append([]string{}, e.Requirements...),
		CreatedAt:    e.CreatedAt,
	}
}

func fromInternalExecution(e model.Execution) Execution {
	return Execution{
		ID:             e.ID,
		Pack:           e.Pack,
		Action:         e.Action,
		EntryPoint:     e.EntryPoint,
		SandboxEnabled: e.SandboxEnabled,
		Status:         ExecutionStatus(e.Status),
		ErrorKind:      ErrorKind(e.ErrorKind),
		Error:          e.Error,
		ExitCode:       e.ExitCode,
		Result:         e.Result,
		Stdout:         e.Stdout,
		Stderr:         e.Stderr,
		StartedAt:      e.StartedAt,
		FinishedAt:     e.FinishedAt,
	}
}

func fromInternalCheckResults(rs []model.CheckResult) []CheckResult {
	result := make([]CheckResult, 0, len(rs))
	for _, r := range rs {
		result = append(result, CheckResult{ID: r.ID, Message: r.Message, Status: CheckStatus(r.Status)})
	}
	return result
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
