package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
)

// ExecutionAPI is the API representation of an execution.
type ExecutionAPI struct {
	ID         string    `json:"id"`
	Pack       string    `json:"pack"`
	Action     string    `json:"action"`
	EntryPoint string    `json:"entry_point"`
	Sandbox    bool      `json:"sandbox"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	ExitCode   int       `json:"exit_code"`
	Result     any       `json:"result"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// ExecutionFromModel returns the API representation of an execution.
func ExecutionFromModel(e model.Execution) ExecutionAPI {
	return ExecutionAPI{
		ID:         e.ID,
		Pack:       e.Pack,
		Action:     e.Action,
		EntryPoint: e.EntryPoint,
		Sandbox:    e.SandboxEnabled,
		Status:     string(e.Status),
		ErrorKind:  string(e.ErrorKind),
		Error:      e.Error,
		ExitCode:   e.ExitCode,
		Result:     e.Result,
		Stdout:     e.Stdout,
		Stderr:     e.Stderr,
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
		DurationMS: e.FinishedAt.Sub(e.StartedAt).Milliseconds(),
	}
}

type executions struct {
	access executionsAccess
}

// NewExecutions returns the executions resource.
func NewExecutions(repo storage.Repository) Resource[model.Execution] {
	return executions{access: executionsAccess{repo: repo}}
}

func (e executions) Access() Access[model.Execution] { return e.access }

func (executions) FromModel(m model.Execution) any { return ExecutionFromModel(m) }

func (executions) SupportedFilters() map[string]string {
	return map[string]string{
		"pack":       "pack",
		"action":     "action",
		"status":     "status",
		"error_kind": "error_kind",
		"sandbox":    "sandbox",
		"started_at": "started_at",
	}
}

type executionsAccess struct {
	repo storage.Repository
}

func (a executionsAccess) Query(ctx context.Context, q model.Query) ([]model.Execution, error) {
	return a.repo.ListExecutions(ctx, q)
}

func (a executionsAccess) Get(ctx context.Context, id string) (*model.Execution, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, fmt.Errorf("malformed execution id %q: %w", id, model.ErrNotFound)
	}
	return a.repo.GetExecution(ctx, id)
}
