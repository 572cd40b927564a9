package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/packrun/internal/app/run"
	"github.com/slok/packrun/internal/app/setup"
	"github.com/slok/packrun/internal/conventions"
	"github.com/slok/packrun/internal/installer"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/metrics"
	metricsprometheus "github.com/slok/packrun/internal/metrics/prometheus"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/sandbox/process"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/storage/memory"
	"github.com/slok/packrun/internal/storage/sqlite"
	"github.com/slok/packrun/internal/virtualenv"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} uses ~/.packrun as the base path,
// ~/.packrun/packs for the packs and ~/.packrun/packrun.db for storage.
type Config struct {
	// BasePath is the packrun data directory, pack environments are created
	// under <BasePath>/virtualenvs.
	// Default: ~/.packrun.
	BasePath string

	// PacksPath is the directory with one subdirectory per pack.
	// Default: <BasePath>/packs.
	PacksPath string

	// DBPath is the SQLite database path.
	// Default: <BasePath>/packrun.db.
	DBPath string

	// Ephemeral keeps the environments and executions records in memory
	// instead of SQLite. The environments on disk are kept.
	Ephemeral bool

	// Interpreter runs the action entry points.
	// Default: python3.
	Interpreter []string

	// PipCommand installs the pack requirements.
	// Default: <Interpreter> -m pip.
	PipCommand []string

	// PipArgs are extra arguments for the pip installs (e.g. index options).
	PipArgs []string

	// GlobalPath are the platform-global library directories, available to
	// every action after the pack environment libraries.
	GlobalPath []string

	// MetricsRegisterer registers the Prometheus metrics of the client.
	// Default: no metrics.
	MetricsRegisterer prometheus.Registerer

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.BasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.BasePath = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.PacksPath == "" {
		c.PacksPath = filepath.Join(c.BasePath, conventions.PacksDir)
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.BasePath, conventions.DBFile)
	}

	if len(c.Interpreter) == 0 {
		c.Interpreter = []string{"python3"}
	}

	if len(c.PipCommand) == 0 {
		c.PipCommand = append(append([]string{}, c.Interpreter...), "-m", "pip")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to set up packs and run their actions.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	setup     *setup.Service
	run       *run.Service
	repo      storage.Repository
	installer *installer.PipInstaller
	envs      *virtualenv.Provisioner
	executor  *process.Executor
	closeFn   func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var recorder metrics.Recorder = metrics.Noop
	if cfg.MetricsRegisterer != nil {
		recorder = metricsprometheus.NewRecorder(cfg.MetricsRegisterer)
	}

	packs, err := pack.NewFSRegistry(pack.FSRegistryConfig{
		PacksPath: cfg.PacksPath,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create pack registry: %w", err)
	}

	inst, err := installer.NewPipInstaller(installer.PipInstallerConfig{
		Command:   cfg.PipCommand,
		ExtraArgs: cfg.PipArgs,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create installer: %w", err)
	}

	envs, err := virtualenv.NewProvisioner(virtualenv.ProvisionerConfig{
		BasePath:  cfg.BasePath,
		Installer: inst,
		Metrics:   recorder,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create environment provisioner: %w", err)
	}

	executor, err := process.NewExecutor(process.ExecutorConfig{
		VirtualenvsPath:  conventions.VirtualenvsPath(cfg.BasePath),
		Interpreter:      cfg.Interpreter,
		GlobalSearchPath: cfg.GlobalPath,
		Logger:           cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create executor: %w", err)
	}

	var (
		repo    storage.Repository
		closeFn func() error
	)
	if cfg.Ephemeral {
		memRepo, err := memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		repo = memRepo
	} else {
		sqliteRepo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		repo = sqliteRepo
		closeFn = sqliteRepo.Close
	}

	setupSvc, err := setup.NewService(setup.ServiceConfig{
		Packs:        packs,
		Environments: envs,
		Repository:   repo,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create setup service: %w", err)
	}

	runSvc, err := run.NewService(run.ServiceConfig{
		Packs:        packs,
		Environments: envs,
		Executor:     executor,
		Repository:   repo,
		Metrics:      recorder,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create run service: %w", err)
	}

	return &Client{
		setup:     setupSvc,
		run:       runSvc,
		repo:      repo,
		installer: inst,
		envs:      envs,
		executor:  executor,
		closeFn:   closeFn,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Setup creates the dependency environment of a pack from its requirements.
// Calling Setup on a pack with an existing environment is a no-op.
//
// Returns [ErrNotFound] if the pack does not exist.
func (c *Client) Setup(ctx context.Context, packName string) (*Environment, error) {
	env, err := c.setup.Setup(ctx, setup.Request{Pack: packName})
	if err != nil {
		return nil, mapError(err)
	}

	e := fromInternalEnvironment(*env)
	return &e, nil
}

// Run runs a pack action and stores its execution.
//
// Sandboxed runs create the pack environment if it doesn't exist yet. When the
// action fails the stored execution is returned together with the error.
func (c *Client) Run(ctx context.Context, opts RunOpts) (*Execution, error) {
	execution, err := c.run.Run(ctx, run.Request{
		Pack:           opts.Pack,
		EntryPoint:     opts.EntryPoint,
		Params:         opts.Params,
		SandboxEnabled: !opts.DisableSandbox,
		Timeout:        opts.Timeout,
		Env:            opts.Env,
	})
	if execution == nil {
		return nil, mapError(err)
	}

	e := fromInternalExecution(*execution)
	return &e, mapError(err)
}

// ListEnvironments returns the stored pack environments, sorted by pack.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	envs, err := c.repo.ListEnvironments(ctx, model.Query{})
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]Environment, 0, len(envs))
	for _, e := range envs {
		result = append(result, fromInternalEnvironment(e))
	}
	return result, nil
}

// GetExecution returns a stored execution.
//
// Returns [ErrNotFound] if the execution does not exist.
func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	execution, err := c.repo.GetExecution(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	e := fromInternalExecution(*execution)
	return &e, nil
}

// Doctor runs the preflight checks of the interpreter, the installer and the
// environments directory.
func (c *Client) Doctor(ctx context.Context) []CheckResult {
	var results []model.CheckResult
	results = append(results, c.executor.Check(ctx)...)
	results = append(results, c.installer.Check(ctx)...)
	results = append(results, c.envs.Check(ctx)...)
	return fromInternalCheckResults(results)
}
