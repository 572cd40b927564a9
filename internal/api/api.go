package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/slok/packrun/internal/app/resource"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// HandlerConfig is the configuration of the HTTP API handler.
type HandlerConfig struct {
	Repository storage.Repository
	// MetricsHandler is served on /metrics when set.
	MetricsHandler http.Handler
	Logger         log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.HTTP"})
	return nil
}

type handler struct {
	executions   *resource.Controller[model.Execution]
	environments *resource.Controller[model.Environment]
	logger       log.Logger
}

// NewHandler returns the read only HTTP API:
//
//	GET /v1/executions
//	GET /v1/executions/{id}
//	GET /v1/environments
//	GET /v1/environments/{id}
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	execs, err := resource.NewController(resource.ControllerConfig[model.Execution]{
		Resource:     resource.NewExecutions(cfg.Repository),
		DefaultSort:  []string{"-started_at"},
		DefaultLimit: defaultPageSize,
		MaxLimit:     maxPageSize,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create executions controller: %w", err)
	}

	envs, err := resource.NewController(resource.ControllerConfig[model.Environment]{
		Resource:     resource.NewEnvironments(cfg.Repository),
		DefaultSort:  []string{"pack"},
		DefaultLimit: defaultPageSize,
		MaxLimit:     maxPageSize,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create environments controller: %w", err)
	}

	h := handler{executions: execs, environments: envs, logger: cfg.Logger}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/executions", h.listHandler(h.executions.GetAll)).Methods(http.MethodGet)
	v1.HandleFunc("/executions/{id}", h.getHandler(h.executions.GetOne)).Methods(http.MethodGet)
	v1.HandleFunc("/environments", h.listHandler(h.environments.GetAll)).Methods(http.MethodGet)
	v1.HandleFunc("/environments/{id}", h.getHandler(h.environments.GetOne)).Methods(http.MethodGet)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	return r, nil
}

func (h handler) listHandler(getAll func(ctx context.Context, params map[string]string) ([]any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		params := map[string]string{}
		for k, v := range req.URL.Query() {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		items, err := getAll(req.Context(), params)
		if err != nil {
			h.writeModelError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, items)
	}
}

func (h handler) getHandler(getOne func(ctx context.Context, id string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		item, err := getOne(req.Context(), mux.Vars(req)["id"])
		if err != nil {
			h.writeModelError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, item)
	}
}

func (h handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		h.logger.WithValues(log.Kv{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": sw.status,
			"dur":    time.Since(start).String(),
		}).Debugf("HTTP request served")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Faultstring string `json:"faultstring"`
}

func (h handler) writeModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrNotValid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Errorf("Could not serve request: %s", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Faultstring: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
