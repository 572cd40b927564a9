package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/internal/api"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/storage/memory"
	"github.com/slok/packrun/internal/storage/storagemock"
)

const (
	execA = "01J9Z3W6Q8X0000000000000AA"
	execB = "01J9Z3W6Q8X0000000000000BB"
)

func newMemoryRepo(t *testing.T) storage.Repository {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	require.NoError(t, repo.CreateExecution(ctx, model.Execution{ID: execA, Pack: "core", Action: "local", Status: model.ExecutionStatusSucceeded, Result: map[string]any{"ok": true}, StartedAt: t0}))
	require.NoError(t, repo.CreateExecution(ctx, model.Execution{ID: execB, Pack: "linux", Action: "check", Status: model.ExecutionStatusFailed, StartedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.SaveEnvironment(ctx, model.Environment{Pack: "core", Path: "/d/virtualenvs/core", Requirements: []string{"six"}, CreatedAt: t0}))

	return repo
}

func TestHandler(t *testing.T) {
	tests := map[string]struct {
		repo      func(t *testing.T) storage.Repository
		method    string
		path      string
		expStatus int
		expBody   func(t *testing.T, body string)
	}{
		"Listing executions should return them newest first.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions",
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				var got []map[string]any
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Len(t, got, 2)
				assert.Equal(t, execB, got[0]["id"])
				assert.Equal(t, execA, got[1]["id"])
			},
		},

		"Listing executions with filters should filter them.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions?pack=core&sort=-started_at",
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				var got []map[string]any
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Len(t, got, 1)
				assert.Equal(t, map[string]any{"ok": true}, got[0]["result"])
			},
		},

		"An invalid sort should return a bad request.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions?sort=foo",
			expStatus: http.StatusBadRequest,
			expBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"faultstring"`)
			},
		},

		"A limit over the maximum should return a bad request.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions?limit=1000",
			expStatus: http.StatusBadRequest,
		},

		"Getting an execution should return it.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions/" + execA,
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				var got map[string]any
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				assert.Equal(t, "core", got["pack"])
				assert.Equal(t, "succeeded", got["status"])
			},
		},

		"Getting a missing execution should return not found.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions/01J9Z3W6Q8X0000000000000ZZ",
			expStatus: http.StatusNotFound,
			expBody: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"faultstring":"Unable to identify resource with id \"01J9Z3W6Q8X0000000000000ZZ\"."}`, body)
			},
		},

		"Getting a malformed execution id should return not found.": {
			repo:      newMemoryRepo,
			path:      "/v1/executions/1234",
			expStatus: http.StatusNotFound,
		},

		"Listing environments should return them.": {
			repo:      newMemoryRepo,
			path:      "/v1/environments",
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				var got []map[string]any
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Len(t, got, 1)
				assert.Equal(t, "core", got[0]["pack"])
			},
		},

		"Getting an environment should return it.": {
			repo:      newMemoryRepo,
			path:      "/v1/environments/core",
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"requirements":["six"]`)
			},
		},

		"Getting a missing environment should return not found.": {
			repo:      newMemoryRepo,
			path:      "/v1/environments/linux",
			expStatus: http.StatusNotFound,
		},

		"Mutating methods should not be allowed.": {
			repo:      newMemoryRepo,
			method:    http.MethodDelete,
			path:      "/v1/environments/core",
			expStatus: http.StatusMethodNotAllowed,
		},

		"Unknown paths should return not found.": {
			repo:      newMemoryRepo,
			path:      "/v1/packs",
			expStatus: http.StatusNotFound,
		},

		"Storage errors should return an internal error without details.": {
			repo: func(t *testing.T) storage.Repository {
				mr := storagemock.NewMockRepository(t)
				mr.On("ListExecutions", mock.Anything, mock.Anything).Once().Return(nil, errors.New("disk on fire"))
				return mr
			},
			path:      "/v1/executions",
			expStatus: http.StatusInternalServerError,
			expBody: func(t *testing.T, body string) {
				assert.NotContains(t, body, "disk on fire")
			},
		},

		"Metrics should be served.": {
			repo:      newMemoryRepo,
			path:      "/metrics",
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body string) {
				assert.True(t, strings.Contains(body, "go_goroutines"))
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			h, err := api.NewHandler(api.HandlerConfig{
				Repository:     test.repo(t),
				MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				Logger:         log.Noop,
			})
			require.NoError(t, err)

			method := test.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, test.path, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, test.expStatus, rr.Code)
			if test.expBody != nil {
				test.expBody(t, rr.Body.String())
			}
		})
	}
}
