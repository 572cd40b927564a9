package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage/sqlite"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func environmentFixture(pack string) model.Environment {
	return model.Environment{
		Pack:           pack,
		Path:           "/data/virtualenvs/" + pack,
		LibraryPath:    "/data/virtualenvs/" + pack + "/lib",
		Requirements:   []string{"six", "requests>=2.0"},
		ManifestDigest: "abc",
		CreatedAt:      t0,
	}
}

func executionFixture(id, pack, action string, status model.ExecutionStatus, startedAt time.Time) model.Execution {
	return model.Execution{
		ID:             id,
		Pack:           pack,
		Action:         action,
		EntryPoint:     "/data/packs/" + pack + "/actions/" + action + ".py",
		SandboxEnabled: true,
		Status:         status,
		ExitCode:       0,
		Result:         map[string]any{"path": "/data/virtualenvs/" + pack + "/lib/six.py"},
		Stdout:         "out\n",
		Stderr:         "err\n",
		StartedAt:      startedAt,
		FinishedAt:     startedAt.Add(1500 * time.Millisecond),
	}
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryEnvironmentCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	env := environmentFixture("core")
	require.NoError(t, repo.SaveEnvironment(ctx, env))

	got, err := repo.GetEnvironment(ctx, "core")
	require.NoError(t, err)
	assert.Equal(t, env, *got)

	// Save is an upsert.
	env.Requirements = []string{"mock"}
	env.ManifestDigest = "def"
	require.NoError(t, repo.SaveEnvironment(ctx, env))
	got, err = repo.GetEnvironment(ctx, "core")
	require.NoError(t, err)
	assert.Equal(t, []string{"mock"}, got.Requirements)
	assert.Equal(t, "def", got.ManifestDigest)

	all, err := repo.ListEnvironments(ctx, model.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteEnvironment(ctx, "core"))
	_, err = repo.GetEnvironment(ctx, "core")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = repo.DeleteEnvironment(ctx, "core")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = repo.SaveEnvironment(ctx, environmentFixture("Bad Name"))
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRepositoryExecutionCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	e := executionFixture("01J0000000000000000000000A", "core", "local", model.ExecutionStatusSucceeded, t0)
	require.NoError(t, repo.CreateExecution(ctx, e))

	got, err := repo.GetExecution(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, *got)

	err = repo.CreateExecution(ctx, e)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	_, err = repo.GetExecution(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	failed := executionFixture("01J0000000000000000000000B", "core", "local", model.ExecutionStatusFailed, t0)
	failed.Result = nil
	failed.ErrorKind = model.ErrorKindExecution
	failed.Error = "action exited with code 1: boom"
	failed.ExitCode = 1
	failed.SandboxEnabled = false
	require.NoError(t, repo.CreateExecution(ctx, failed))

	got, err = repo.GetExecution(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, failed, *got)

	err = repo.CreateExecution(ctx, model.Execution{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRepositoryListExecutions(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, repo *sqlite.Repository) {
		execs := []model.Execution{
			executionFixture("01J0000000000000000000000A", "core", "local", model.ExecutionStatusSucceeded, t0),
			executionFixture("01J0000000000000000000000B", "core", "remote", model.ExecutionStatusFailed, t0.Add(time.Minute)),
			executionFixture("01J0000000000000000000000C", "linux", "check", model.ExecutionStatusSucceeded, t0.Add(2*time.Minute)),
		}
		execs[2].SandboxEnabled = false
		for _, e := range execs {
			require.NoError(t, repo.CreateExecution(ctx, e))
		}
	}

	tests := map[string]struct {
		query  model.Query
		expIDs []string
		expErr error
	}{
		"Without query should return all the executions newest first.": {
			expIDs: []string{"01J0000000000000000000000C", "01J0000000000000000000000B", "01J0000000000000000000000A"},
		},

		"Filtering by pack should return only the pack executions.": {
			query:  model.Query{Filters: map[string]string{"pack": "core"}},
			expIDs: []string{"01J0000000000000000000000B", "01J0000000000000000000000A"},
		},

		"Filtering by multiple fields should match all of them.": {
			query:  model.Query{Filters: map[string]string{"pack": "core", "status": "succeeded"}},
			expIDs: []string{"01J0000000000000000000000A"},
		},

		"Filtering by name should filter by action.": {
			query:  model.Query{Filters: map[string]string{"name": "check"}},
			expIDs: []string{"01J0000000000000000000000C"},
		},

		"Filtering by sandbox should use the boolean value.": {
			query:  model.Query{Filters: map[string]string{"sandbox": "false"}},
			expIDs: []string{"01J0000000000000000000000C"},
		},

		"Ordering ascending should be used.": {
			query:  model.Query{OrderBy: []string{"started_at"}},
			expIDs: []string{"01J0000000000000000000000A", "01J0000000000000000000000B", "01J0000000000000000000000C"},
		},

		"Ordering by multiple fields should be used.": {
			query:  model.Query{OrderBy: []string{"-pack", "action"}},
			expIDs: []string{"01J0000000000000000000000C", "01J0000000000000000000000A", "01J0000000000000000000000B"},
		},

		"Pagination should be applied after ordering.": {
			query:  model.Query{Offset: 1, Limit: 1},
			expIDs: []string{"01J0000000000000000000000B"},
		},

		"An offset without limit should skip the first results.": {
			query:  model.Query{Offset: 2},
			expIDs: []string{"01J0000000000000000000000A"},
		},

		"An unknown filter should fail.": {
			query:  model.Query{Filters: map[string]string{"stdout": "x"}},
			expErr: model.ErrNotValid,
		},

		"An unknown order field should fail.": {
			query:  model.Query{OrderBy: []string{"-stdout"}},
			expErr: model.ErrNotValid,
		},

		"An invalid sandbox filter value should fail.": {
			query:  model.Query{Filters: map[string]string{"sandbox": "maybe"}},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			repo := newRepo(t)
			seed(t, repo)

			got, err := repo.ListExecutions(ctx, test.query)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(t, err)
			gotIDs := []string{}
			for _, e := range got {
				gotIDs = append(gotIDs, e.ID)
			}
			assert.Equal(test.expIDs, gotIDs)
		})
	}
}

func TestRepositoryListEnvironments(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for i, p := range []string{"linux", "core", "aws"} {
		env := environmentFixture(p)
		env.CreatedAt = t0.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.SaveEnvironment(ctx, env))
	}

	got, err := repo.ListEnvironments(ctx, model.Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"aws", "core", "linux"}, []string{got[0].Pack, got[1].Pack, got[2].Pack})

	got, err = repo.ListEnvironments(ctx, model.Query{OrderBy: []string{"-created_at"}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"aws", "core"}, []string{got[0].Pack, got[1].Pack})

	got, err = repo.ListEnvironments(ctx, model.Query{Filters: map[string]string{"name": "core"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "core", got[0].Pack)

	_, err = repo.ListEnvironments(ctx, model.Query{OrderBy: []string{"path"}})
	assert.ErrorIs(t, err, model.ErrNotValid)
}
