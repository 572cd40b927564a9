package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/slok/packrun/internal/model"
)

// Repository is the interface for packrun persistence.
type Repository interface {
	// SaveEnvironment creates or replaces the environment record of a pack.
	SaveEnvironment(ctx context.Context, env model.Environment) error
	GetEnvironment(ctx context.Context, pack string) (*model.Environment, error)
	ListEnvironments(ctx context.Context, q model.Query) ([]model.Environment, error)
	DeleteEnvironment(ctx context.Context, pack string) error

	CreateExecution(ctx context.Context, e model.Execution) error
	GetExecution(ctx context.Context, id string) (*model.Execution, error)
	ListExecutions(ctx context.Context, q model.Query) ([]model.Execution, error)
}

// Queryable fields of each resource.
var (
	EnvironmentFilterFields = []string{"id", "name", "pack"}
	EnvironmentOrderFields  = []string{"pack", "created_at"}

	ExecutionFilterFields = []string{"id", "name", "pack", "action", "status", "error_kind", "sandbox"}
	ExecutionOrderFields  = []string{"id", "pack", "action", "status", "started_at", "finished_at"}
)

// ValidateQuery checks the query only uses the allowed fields.
func ValidateQuery(q model.Query, filterFields, orderFields []string) error {
	for f := range q.Filters {
		if !slices.Contains(filterFields, f) {
			return fmt.Errorf("unsupported filter %q: %w", f, model.ErrNotValid)
		}
	}
	for _, o := range q.OrderBy {
		f, _ := OrderField(o)
		if !slices.Contains(orderFields, f) {
			return fmt.Errorf("unsupported order field %q: %w", f, model.ErrNotValid)
		}
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset can't be negative: %w", model.ErrNotValid)
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	return nil
}

// OrderField returns the field of an order expression and if it's descending.
func OrderField(o string) (field string, desc bool) {
	if strings.HasPrefix(o, "-") {
		return o[1:], true
	}
	return o, false
}
