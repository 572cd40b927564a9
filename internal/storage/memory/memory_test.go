package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage/memory"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
	require.NoError(t, err)
	return repo
}

func TestRepositoryEnvironments(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository)
	}{
		"Saving an environment should allow retrieving it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				env := model.Environment{Pack: "core", Path: "/d/core", LibraryPath: "/d/core/lib", Requirements: []string{"six"}, CreatedAt: t0}
				require.NoError(t, repo.SaveEnvironment(ctx, env))

				got, err := repo.GetEnvironment(ctx, "core")
				require.NoError(t, err)
				assert.Equal(t, env, *got)
			},
		},

		"Saving an existing environment should replace it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: "core", Requirements: []string{"six"}}))
				require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: "core", Requirements: []string{"mock"}}))

				got, err := repo.GetEnvironment(ctx, "core")
				require.NoError(t, err)
				assert.Equal(t, []string{"mock"}, got.Requirements)
			},
		},

		"Returned environments should be copies.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: "core", Requirements: []string{"six"}}))

				got, err := repo.GetEnvironment(ctx, "core")
				require.NoError(t, err)
				got.Requirements[0] = "changed"

				got, err = repo.GetEnvironment(ctx, "core")
				require.NoError(t, err)
				assert.Equal(t, []string{"six"}, got.Requirements)
			},
		},

		"Deleting a missing environment should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.DeleteEnvironment(ctx, "core")
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},

		"Deleting an environment should remove it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: "core"}))
				require.NoError(t, repo.DeleteEnvironment(ctx, "core"))

				_, err := repo.GetEnvironment(ctx, "core")
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},

		"Listing environments should filter, order and paginate.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				for i, p := range []string{"linux", "core", "aws"} {
					require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: p, CreatedAt: t0.Add(time.Duration(i) * time.Hour)}))
				}

				got, err := repo.ListEnvironments(ctx, model.Query{})
				require.NoError(t, err)
				assert.Equal(t, []string{"aws", "core", "linux"}, packs(got))

				got, err = repo.ListEnvironments(ctx, model.Query{OrderBy: []string{"-created_at"}, Offset: 1})
				require.NoError(t, err)
				assert.Equal(t, []string{"core", "linux"}, packs(got))

				got, err = repo.ListEnvironments(ctx, model.Query{Filters: map[string]string{"id": "linux"}})
				require.NoError(t, err)
				assert.Equal(t, []string{"linux"}, packs(got))

				_, err = repo.ListEnvironments(ctx, model.Query{Filters: map[string]string{"path": "/"}})
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.actions(context.Background(), t, newRepo(t))
		})
	}
}

func TestRepositoryExecutions(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository)
	}{
		"Creating an execution should allow retrieving it.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				e := model.Execution{ID: "a", Pack: "core", Action: "local", Status: model.ExecutionStatusSucceeded, StartedAt: t0}
				require.NoError(t, repo.CreateExecution(ctx, e))

				got, err := repo.GetExecution(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, e, *got)
			},
		},

		"Creating a duplicated execution should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				require.NoError(t, repo.CreateExecution(ctx, model.Execution{ID: "a"}))
				err := repo.CreateExecution(ctx, model.Execution{ID: "a"})
				assert.ErrorIs(t, err, model.ErrAlreadyExists)
			},
		},

		"Creating an execution without ID should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				err := repo.CreateExecution(ctx, model.Execution{})
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},

		"Getting a missing execution should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				_, err := repo.GetExecution(ctx, "a")
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},

		"Listing executions should filter, order and paginate.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) {
				execs := []model.Execution{
					{ID: "a", Pack: "core", Action: "local", Status: model.ExecutionStatusSucceeded, SandboxEnabled: true, StartedAt: t0},
					{ID: "b", Pack: "core", Action: "remote", Status: model.ExecutionStatusFailed, SandboxEnabled: true, StartedAt: t0.Add(time.Minute)},
					{ID: "c", Pack: "linux", Action: "check", Status: model.ExecutionStatusSucceeded, StartedAt: t0.Add(2 * time.Minute)},
				}
				for _, e := range execs {
					require.NoError(t, repo.CreateExecution(ctx, e))
				}

				got, err := repo.ListExecutions(ctx, model.Query{})
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "b", "a"}, ids(got))

				got, err = repo.ListExecutions(ctx, model.Query{Filters: map[string]string{"pack": "core", "status": "succeeded"}})
				require.NoError(t, err)
				assert.Equal(t, []string{"a"}, ids(got))

				got, err = repo.ListExecutions(ctx, model.Query{Filters: map[string]string{"sandbox": "0"}})
				require.NoError(t, err)
				assert.Equal(t, []string{"c"}, ids(got))

				got, err = repo.ListExecutions(ctx, model.Query{OrderBy: []string{"-pack", "action"}})
				require.NoError(t, err)
				assert.Equal(t, []string{"c", "a", "b"}, ids(got))

				got, err = repo.ListExecutions(ctx, model.Query{OrderBy: []string{"started_at"}, Offset: 1, Limit: 1})
				require.NoError(t, err)
				assert.Equal(t, []string{"b"}, ids(got))

				got, err = repo.ListExecutions(ctx, model.Query{Offset: 10})
				require.NoError(t, err)
				assert.Empty(t, got)

				_, err = repo.ListExecutions(ctx, model.Query{OrderBy: []string{"stdout"}})
				assert.ErrorIs(t, err, model.ErrNotValid)

				_, err = repo.ListExecutions(ctx, model.Query{Filters: map[string]string{"sandbox": "maybe"}})
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.actions(context.Background(), t, newRepo(t))
		})
	}
}

func packs(envs []model.Environment) []string {
	ps := []string{}
	for _, e := range envs {
		ps = append(ps, e.Pack)
	}
	return ps
}

func ids(execs []model.Execution) []string {
	is := []string{}
	for _, e := range execs {
		is = append(is, e.ID)
	}
	return is
}
