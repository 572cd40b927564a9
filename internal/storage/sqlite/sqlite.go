package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

var environmentColumns = map[string]string{
	"id":         "pack",
	"name":       "pack",
	"pack":       "pack",
	"created_at": "created_at",
}

const environmentSelect = `
	SELECT
		pack, path, library_path,
		requirements, manifest_digest,
		created_at
	FROM environments
`

// SaveEnvironment creates or replaces the environment of a pack.
func (r *Repository) SaveEnvironment(ctx context.Context, env model.Environment) error {
	if err := model.ValidatePackName(env.Pack); err != nil {
		return err
	}

	reqs := env.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	reqsJSON, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("could not encode requirements: %w", err)
	}

	query := `
		INSERT INTO environments (
			pack, path, library_path,
			requirements, manifest_digest,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pack) DO UPDATE SET
			path = excluded.path,
			library_path = excluded.library_path,
			requirements = excluded.requirements,
			manifest_digest = excluded.manifest_digest,
			created_at = excluded.created_at
	`

	_, err = r.db.ExecContext(ctx, query,
		env.Pack,
		env.Path,
		env.LibraryPath,
		string(reqsJSON),
		env.ManifestDigest,
		env.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("could not save environment: %w", err)
	}

	r.logger.Debugf("Saved environment in repository: %s", env.Pack)
	return nil
}

// GetEnvironment retrieves the environment of a pack.
func (r *Repository) GetEnvironment(ctx context.Context, pack string) (*model.Environment, error) {
	row := r.db.QueryRowContext(ctx, environmentSelect+`WHERE pack = ?`, pack)
	env, err := scanEnvironment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("environment %s: %w", pack, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query environment: %w", err)
	}

	return &env, nil
}

// ListEnvironments returns the environments selected by the query, by default ordered by pack.
func (r *Repository) ListEnvironments(ctx context.Context, q model.Query) ([]model.Environment, error) {
	if err := storage.ValidateQuery(q, storage.EnvironmentFilterFields, storage.EnvironmentOrderFields); err != nil {
		return nil, err
	}

	query, args, err := buildQuery(environmentSelect, q, environmentColumns, []string{"pack"}, "pack")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query environments: %w", err)
	}
	defer rows.Close()

	envs := []model.Environment{}
	for rows.Next() {
		env, err := scanEnvironment(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		envs = append(envs, env)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return envs, nil
}

// DeleteEnvironment deletes the environment of a pack.
func (r *Repository) DeleteEnvironment(ctx context.Context, pack string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM environments WHERE pack = ?`, pack)
	if err != nil {
		return fmt.Errorf("could not delete environment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("environment %s: %w", pack, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted environment from repository: %s", pack)
	return nil
}

var executionColumns = map[string]string{
	"id":          "id",
	"name":        "action",
	"pack":        "pack",
	"action":      "action",
	"status":      "status",
	"error_kind":  "error_kind",
	"sandbox":     "sandbox_enabled",
	"started_at":  "started_at",
	"finished_at": "finished_at",
}

const executionSelect = `
	SELECT
		id, pack, action, entry_point, sandbox_enabled,
		status, error_kind, error, exit_code,
		result, stdout, stderr,
		started_at, finished_at
	FROM executions
`

// CreateExecution stores a new execution.
func (r *Repository) CreateExecution(ctx context.Context, e model.Execution) error {
	if e.ID == "" {
		return fmt.Errorf("execution id is required: %w", model.ErrNotValid)
	}

	var result *string
	if e.Result != nil {
		data, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("could not encode result: %w: %w", err, model.ErrNotValid)
		}
		s := string(data)
		result = &s
	}

	query := `
		INSERT INTO executions (
			id, pack, action, entry_point, sandbox_enabled,
			status, error_kind, error, exit_code,
			result, stdout, stderr,
			started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Pack,
		e.Action,
		e.EntryPoint,
		e.SandboxEnabled,
		e.Status,
		e.ErrorKind,
		e.Error,
		e.ExitCode,
		result,
		e.Stdout,
		e.Stderr,
		e.StartedAt.UnixMilli(),
		e.FinishedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: executions.") {
			return fmt.Errorf("execution already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert execution: %w", err)
	}

	r.logger.Debugf("Created execution in repository: %s", e.ID)
	return nil
}

// GetExecution retrieves an execution by ID.
func (r *Repository) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	row := r.db.QueryRowContext(ctx, executionSelect+`WHERE id = ?`, id)
	e, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query execution: %w", err)
	}

	return &e, nil
}

// ListExecutions returns the executions selected by the query, by default newest first.
func (r *Repository) ListExecutions(ctx context.Context, q model.Query) ([]model.Execution, error) {
	if err := storage.ValidateQuery(q, storage.ExecutionFilterFields, storage.ExecutionOrderFields); err != nil {
		return nil, err
	}

	query, args, err := buildQuery(executionSelect, q, executionColumns, []string{"-started_at"}, "id")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query executions: %w", err)
	}
	defer rows.Close()

	execs := []model.Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		execs = append(execs, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return execs, nil
}

// buildQuery appends the query filters, order and pagination to a select statement.
// Only mapped columns end in the statement, values are always bound.
func buildQuery(base string, q model.Query, columns map[string]string, defaultOrder []string, tiebreak string) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(base)
	args := []any{}

	fields := make([]string, 0, len(q.Filters))
	for f := range q.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	where := []string{}
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter %q: %w", f, model.ErrNotValid)
		}

		var v any = q.Filters[f]
		if col == "sandbox_enabled" {
			b, err := strconv.ParseBool(q.Filters[f])
			if err != nil {
				return "", nil, fmt.Errorf("invalid %s filter value %q: %w", f, q.Filters[f], model.ErrNotValid)
			}
			v = b
		}
		where = append(where, col+" = ?")
		args = append(args, v)
	}
	if len(where) > 0 {
		sb.WriteString("WHERE " + strings.Join(where, " AND ") + "\n")
	}

	orderBy := q.OrderBy
	if len(orderBy) == 0 {
		orderBy = defaultOrder
	}
	order := []string{}
	for _, o := range orderBy {
		f, desc := storage.OrderField(o)
		col, ok := columns[f]
		if !ok {
			return "", nil, fmt.Errorf("unsupported order field %q: %w", f, model.ErrNotValid)
		}
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		order = append(order, col+" "+dir)
	}
	order = append(order, tiebreak+" ASC")
	sb.WriteString("ORDER BY " + strings.Join(order, ", ") + "\n")

	switch {
	case q.Limit > 0:
		sb.WriteString("LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		sb.WriteString("LIMIT -1 OFFSET ?")
		args = append(args, q.Offset)
	}

	return sb.String(), args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEnvironment(s scanner) (model.Environment, error) {
	var env model.Environment
	var reqs string
	var createdAt int64

	err := s.Scan(
		&env.Pack,
		&env.Path,
		&env.LibraryPath,
		&reqs,
		&env.ManifestDigest,
		&createdAt,
	)
	if err != nil {
		return model.Environment{}, err
	}

	if err := json.Unmarshal([]byte(reqs), &env.Requirements); err != nil {
		return model.Environment{}, fmt.Errorf("could not decode requirements: %w", err)
	}
	env.CreatedAt = timeFromUnixMilli(createdAt)

	return env, nil
}

func scanExecution(s scanner) (model.Execution, error) {
	var e model.Execution
	var result sql.NullString
	var startedAt, finishedAt int64

	err := s.Scan(
		&e.ID,
		&e.Pack,
		&e.Action,
		&e.EntryPoint,
		&e.SandboxEnabled,
		&e.Status,
		&e.ErrorKind,
		&e.Error,
		&e.ExitCode,
		&result,
		&e.Stdout,
		&e.Stderr,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return model.Execution{}, err
	}

	if result.Valid {
		if err := json.Unmarshal([]byte(result.String), &e.Result); err != nil {
			return model.Execution{}, fmt.Errorf("could not decode result: %w", err)
		}
	}
	e.StartedAt = timeFromUnixMilli(startedAt)
	e.FinishedAt = timeFromUnixMilli(finishedAt)

	return e, nil
}

func timeFromUnixMilli(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
