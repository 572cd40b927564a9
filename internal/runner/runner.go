package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/sandbox"
	"github.com/slok/packrun/internal/virtualenv"
)

// Config is the configuration of a single action run.
type Config struct {
	Packs        pack.Registry
	Environments virtualenv.Manager
	Executor     sandbox.Executor

	// Pack is the name of the pack owning the action. Required.
	Pack string
	// EntryPoint is the action script, relative to the pack actions directory. Required.
	EntryPoint string
	// SandboxEnabled runs the action with the pack environment libraries.
	SandboxEnabled bool
	Timeout        time.Duration
	Env            map[string]string
	Logger         log.Logger
}

func (c *Config) defaults() error {
	if c.Packs == nil {
		return fmt.Errorf("pack registry is required")
	}
	if c.Environments == nil {
		return fmt.Errorf("environment manager is required")
	}
	if c.Executor == nil {
		return fmt.Errorf("executor is required")
	}
	if c.Pack == "" {
		return fmt.Errorf("pack is required")
	}
	if c.EntryPoint == "" {
		return fmt.Errorf("entry point is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "runner.Runner", "pack": c.Pack, "entrypoint": c.EntryPoint})
	return nil
}

// Runner runs a single pack action. A runner is used once:
//
//	created -> prerun -> running -> completed | failed
//
// Failures are terminal, the runner never retries.
type Runner struct {
	packs    pack.Registry
	envs     virtualenv.Manager
	executor sandbox.Executor
	cfg      Config
	logger   log.Logger

	mu         sync.Mutex
	state      model.RunnerState
	pack       *model.Pack
	entryPoint string
	env        *model.Environment
}

// New returns a new runner in the created state.
func New(cfg Config) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		packs:    cfg.Packs,
		envs:     cfg.Environments,
		executor: cfg.Executor,
		cfg:      cfg,
		logger:   cfg.Logger,
		state:    model.RunnerStateCreated,
	}, nil
}

// State returns the current state of the runner.
func (r *Runner) State() model.RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// EntryPoint returns the resolved entry point, empty until PreRun succeeds.
func (r *Runner) EntryPoint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryPoint
}

// Environment returns the pack environment used by a sandboxed run, nil otherwise.
func (r *Runner) Environment() *model.Environment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.env
}

// PreRun resolves the pack and the action entry point.
func (r *Runner) PreRun(ctx context.Context) error {
	if err := r.transition(model.RunnerStateCreated, model.RunnerStatePreRun); err != nil {
		return err
	}

	pk, err := r.packs.GetPack(ctx, r.cfg.Pack)
	if err != nil {
		r.setState(model.RunnerStateFailed)
		return fmt.Errorf("could not get pack: %w", err)
	}

	entryPoint, err := ResolveEntryPoint(pk.ActionsPath, r.cfg.EntryPoint)
	if err != nil {
		r.setState(model.RunnerStateFailed)
		return err
	}

	r.mu.Lock()
	r.pack = pk
	r.entryPoint = entryPoint
	r.mu.Unlock()

	r.logger.Debugf("Entry point resolved to %s", entryPoint)
	return nil
}

// Run executes the action with the params. The pack environment is only provisioned
// when the sandbox is enabled.
func (r *Runner) Run(ctx context.Context, params map[string]any) (*model.ExecutionResult, error) {
	if err := r.transition(model.RunnerStatePreRun, model.RunnerStateRunning); err != nil {
		return nil, err
	}

	res, err := r.run(ctx, params)
	if err != nil {
		r.setState(model.RunnerStateFailed)
		return nil, err
	}

	r.setState(model.RunnerStateCompleted)
	return res, nil
}

func (r *Runner) run(ctx context.Context, params map[string]any) (*model.ExecutionResult, error) {
	var env *model.Environment
	if r.cfg.SandboxEnabled {
		e, err := r.envs.Ensure(ctx, *r.pack)
		if err != nil {
			return nil, err
		}
		env = e
		r.mu.Lock()
		r.env = e
		r.mu.Unlock()
	} else {
		r.logger.Debugf("Sandbox disabled, skipping environment provisioning")
	}

	res, err := r.executor.Run(ctx, model.ExecutionRequest{
		EntryPoint:     r.entryPoint,
		Params:         params,
		SandboxEnabled: r.cfg.SandboxEnabled,
		Timeout:        r.cfg.Timeout,
		Env:            r.cfg.Env,
	}, env)
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (r *Runner) transition(from, to model.RunnerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != from {
		return fmt.Errorf("runner can't move to %s from %s: %w", to, r.state, model.ErrNotValid)
	}
	r.state = to
	return nil
}

func (r *Runner) setState(s model.RunnerState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// ResolveEntryPoint returns the absolute path of an action entry point. Relative entry
// points are resolved from the actions directory, the result must be a regular file
// inside it.
func ResolveEntryPoint(actionsPath, entryPoint string) (string, error) {
	if entryPoint == "" {
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: fmt.Errorf("empty entry point")}
	}

	path := entryPoint
	if !filepath.IsAbs(path) {
		path = filepath.Join(actionsPath, path)
	}
	path = filepath.Clean(path)

	realActions, err := filepath.EvalSymlinks(actionsPath)
	if err != nil {
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: fmt.Errorf("actions directory: %w", err)}
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: model.ErrNotFound}
		}
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: err}
	}

	rel, err := filepath.Rel(realActions, realPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: fmt.Errorf("outside of the pack actions directory")}
	}

	st, err := os.Stat(realPath)
	if err != nil {
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: err}
	}
	if !st.Mode().IsRegular() {
		return "", &model.EntryPointNotFoundError{Path: entryPoint, Err: fmt.Errorf("not a regular file")}
	}

	return realPath, nil
}
