package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/runner"
	"github.com/slok/packrun/internal/sandbox"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/virtualenv"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Packs        pack.Registry
	Environments virtualenv.Manager
	Executor     sandbox.Executor
	Repository   storage.Repository
	Metrics      metrics.Recorder
	Logger       log.Logger

	// IDGenerator returns new execution IDs, defaults to ULIDs.
	IDGenerator func() string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Packs == nil {
		return fmt.Errorf("pack registry is required")
	}
	if c.Environments == nil {
		return fmt.Errorf("environment manager is required")
	}
	if c.Executor == nil {
		return fmt.Errorf("executor is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop
	}
	if c.IDGenerator == nil {
		c.IDGenerator = func() string { return ulid.Make().String() }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service runs pack actions and records their executions.
type Service struct {
	packs    pack.Registry
	envs     virtualenv.Manager
	executor sandbox.Executor
	repo     storage.Repository
	metrics  metrics.Recorder
	newID    func() string
	now      func() time.Time
	logger   log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		packs:    cfg.Packs,
		envs:     cfg.Environments,
		executor: cfg.Executor,
		repo:     cfg.Repository,
		metrics:  cfg.Metrics,
		newID:    cfg.IDGenerator,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}, nil
}

// Request contains the parameters for running an action.
type Request struct {
	Pack string
	// EntryPoint is the action script relative to the pack actions directory.
	EntryPoint     string
	Params         map[string]any
	SandboxEnabled bool
	Timeout        time.Duration
	Env            map[string]string
}

// Run executes the action and stores the execution record.
//
// When the action fails the stored execution is returned together with the error,
// so callers can inspect the captured output.
func (s *Service) Run(ctx context.Context, req Request) (*model.Execution, error) {
	if req.Pack == "" {
		return nil, fmt.Errorf("pack is required: %w", model.ErrNotValid)
	}
	if req.EntryPoint == "" {
		return nil, fmt.Errorf("entry point is required: %w", model.ErrNotValid)
	}

	execution := model.Execution{
		ID:             s.newID(),
		Pack:           req.Pack,
		Action:         actionName(req.EntryPoint),
		EntryPoint:     req.EntryPoint,
		SandboxEnabled: req.SandboxEnabled,
	}
	logger := s.logger.WithValues(log.Kv{"execution": execution.ID, "pack": req.Pack, "action": execution.Action})
	ctx = logger.SetValuesOnCtx(ctx, log.Kv{"execution": execution.ID})

	r, err := runner.New(runner.Config{
		Packs:          s.packs,
		Environments:   s.envs,
		Executor:       s.executor,
		Pack:           req.Pack,
		EntryPoint:     req.EntryPoint,
		SandboxEnabled: req.SandboxEnabled,
		Timeout:        req.Timeout,
		Env:            req.Env,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create runner: %w: %w", err, model.ErrNotValid)
	}

	execution.StartedAt = s.now().UTC()
	res, runErr := s.run(ctx, r, req.Params)
	execution.FinishedAt = s.now().UTC()

	if ep := r.EntryPoint(); ep != "" {
		execution.EntryPoint = ep
	}
	if env := r.Environment(); env != nil {
		// Environments provisioned lazily are recorded too.
		if err := s.repo.SaveEnvironment(ctx, *env); err != nil {
			logger.Warningf("Could not save environment: %s", err)
		}
	}

	switch {
	case runErr == nil:
		execution.Status = model.ExecutionStatusSucceeded
		execution.ExitCode = res.ExitCode
		execution.Result = res.Result
		execution.Stdout = res.Stdout
		execution.Stderr = res.Stderr
	case errors.Is(runErr, context.Canceled):
		// Nothing to record for cancelled runs.
		return nil, runErr
	default:
		execution.Status = model.ExecutionStatusFailed
		execution.ErrorKind = model.KindOf(runErr)
		execution.Error = runErr.Error()
		if out := model.OutputOf(runErr); out != nil {
			execution.ExitCode = out.ExitCode
			execution.Stdout = out.Stdout
			execution.Stderr = out.Stderr
		}
	}

	s.metrics.ObserveExecution(ctx, req.Pack, req.SandboxEnabled, string(execution.Status), execution.FinishedAt.Sub(execution.StartedAt))

	if err := s.repo.CreateExecution(ctx, execution); err != nil {
		if runErr != nil {
			logger.Errorf("Could not save failed execution: %s", err)
			return nil, runErr
		}
		return nil, fmt.Errorf("could not save execution: %w", err)
	}

	if runErr != nil {
		logger.Warningf("Execution failed (%s): %s", execution.ErrorKind, runErr)
		return &execution, runErr
	}

	logger.Infof("Execution succeeded")
	return &execution, nil
}

func (s *Service) run(ctx context.Context, r *runner.Runner, params map[string]any) (*model.ExecutionResult, error) {
	if err := r.PreRun(ctx); err != nil {
		return nil, err
	}
	return r.Run(ctx, params)
}

func actionName(entryPoint string) string {
	base := filepath.Base(entryPoint)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
