package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	environments map[string]model.Environment
	executions   map[string]model.Execution
	mu           sync.RWMutex
	logger       log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		environments: make(map[string]model.Environment),
		executions:   make(map[string]model.Execution),
		logger:       cfg.Logger,
	}, nil
}

// SaveEnvironment creates or replaces the environment of a pack.
func (r *Repository) SaveEnvironment(ctx context.Context, env model.Environment) error {
	if err := model.ValidatePackName(env.Pack); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	env.Requirements = slices.Clone(env.Requirements)
	r.environments[env.Pack] = env
	r.logger.Debugf("Saved environment in repository: %s", env.Pack)

	return nil
}

// GetEnvironment retrieves the environment of a pack.
func (r *Repository) GetEnvironment(ctx context.Context, pack string) (*model.Environment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	env, ok := r.environments[pack]
	if !ok {
		return nil, fmt.Errorf("environment %s: %w", pack, model.ErrNotFound)
	}

	env.Requirements = slices.Clone(env.Requirements)
	return &env, nil
}

// ListEnvironments returns the environments selected by the query, by default ordered by pack.
func (r *Repository) ListEnvironments(ctx context.Context, q model.Query) ([]model.Environment, error) {
	if err := storage.ValidateQuery(q, storage.EnvironmentFilterFields, storage.EnvironmentOrderFields); err != nil {
		return nil, err
	}

	r.mu.RLock()
	envs := make([]model.Environment, 0, len(r.environments))
	for _, env := range r.environments {
		if !matches(q.Filters, func(f string) string { return env.Pack }) {
			continue
		}
		env.Requirements = slices.Clone(env.Requirements)
		envs = append(envs, env)
	}
	r.mu.RUnlock()

	orderBy := q.OrderBy
	if len(orderBy) == 0 {
		orderBy = []string{"pack"}
	}
	slices.SortFunc(envs, func(a, b model.Environment) int {
		for _, o := range orderBy {
			f, desc := storage.OrderField(o)
			var c int
			switch f {
			case "pack":
				c = cmp.Compare(a.Pack, b.Pack)
			case "created_at":
				c = a.CreatedAt.Compare(b.CreatedAt)
			}
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Pack, b.Pack)
	})

	return paginate(envs, q), nil
}

// DeleteEnvironment deletes the environment of a pack.
func (r *Repository) DeleteEnvironment(ctx context.Context, pack string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.environments[pack]; !ok {
		return fmt.Errorf("environment %s: %w", pack, model.ErrNotFound)
	}

	delete(r.environments, pack)
	r.logger.Debugf("Deleted environment from repository: %s", pack)

	return nil
}

// CreateExecution stores a new execution.
func (r *Repository) CreateExecution(ctx context.Context, e model.Execution) error {
	if e.ID == "" {
		return fmt.Errorf("execution id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executions[e.ID]; ok {
		return fmt.Errorf("execution %s: %w", e.ID, model.ErrAlreadyExists)
	}

	r.executions[e.ID] = e
	r.logger.Debugf("Created execution in repository: %s", e.ID)

	return nil
}

// GetExecution retrieves an execution by ID.
func (r *Repository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
	}

	return &e, nil
}

// ListExecutions returns the executions selected by the query, by default newest first.
func (r *Repository) ListExecutions(ctx context.Context, q model.Query) ([]model.Execution, error) {
	if err := storage.ValidateQuery(q, storage.ExecutionFilterFields, storage.ExecutionOrderFields); err != nil {
		return nil, err
	}
	if v, ok := q.Filters["sandbox"]; ok {
		if _, err := strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid sandbox filter value %q: %w", v, model.ErrNotValid)
		}
	}

	r.mu.RLock()
	execs := make([]model.Execution, 0, len(r.executions))
	for _, e := range r.executions {
		if !matches(q.Filters, func(f string) string { return executionField(e, f) }) {
			continue
		}
		execs = append(execs, e)
	}
	r.mu.RUnlock()

	orderBy := q.OrderBy
	if len(orderBy) == 0 {
		orderBy = []string{"-started_at"}
	}
	slices.SortFunc(execs, func(a, b model.Execution) int {
		for _, o := range orderBy {
			f, desc := storage.OrderField(o)
			var c int
			switch f {
			case "started_at":
				c = a.StartedAt.Compare(b.StartedAt)
			case "finished_at":
				c = a.FinishedAt.Compare(b.FinishedAt)
			default:
				c = cmp.Compare(executionField(a, f), executionField(b, f))
			}
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return paginate(execs, q), nil
}

func executionField(e model.Execution, field string) string {
	switch field {
	case "id":
		return e.ID
	case "name", "action":
		return e.Action
	case "pack":
		return e.Pack
	case "status":
		return string(e.Status)
	case "error_kind":
		return string(e.ErrorKind)
	case "sandbox":
		return strconv.FormatBool(e.SandboxEnabled)
	case "started_at":
		return e.StartedAt.Format(time.RFC3339Nano)
	case "finished_at":
		return e.FinishedAt.Format(time.RFC3339Nano)
	}
	return ""
}

func matches(filters map[string]string, value func(field string) string) bool {
	for f, v := range filters {
		if f == "sandbox" {
			want, _ := strconv.ParseBool(v)
			v = strconv.FormatBool(want)
		}
		if value(f) != v {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, q model.Query) []T {
	if q.Offset >= len(items) {
		return []T{}
	}
	items = items[q.Offset:]
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	return items
}
