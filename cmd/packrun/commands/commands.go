package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/packrun/internal/conventions"
	"github.com/slok/packrun/internal/installer"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/printer"
	"github.com/slok/packrun/internal/sandbox/process"
	"github.com/slok/packrun/internal/storage/sqlite"
	"github.com/slok/packrun/internal/virtualenv"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	outputTable = "table"
	outputJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	BasePath   string
	PacksPath  string
	DBPath     string
	Python     string
	GlobalPath []string
	PipArgs    []string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultBasePath := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("base-path", "packrun data directory, pack environments are created under <base-path>/virtualenvs.").Default(defaultBasePath).StringVar(&c.BasePath)
	app.Flag("packs-path", "Directory with the installed packs (defaults to <base-path>/packs).").StringVar(&c.PacksPath)
	app.Flag("db-path", "Path to the SQLite database file (defaults to <base-path>/packrun.db).").StringVar(&c.DBPath)
	app.Flag("python", "Python interpreter used to install dependencies and run the actions.").Default("python3").StringVar(&c.Python)
	app.Flag("global-path", "Platform-global library directories, available to every action (repeatable).").StringsVar(&c.GlobalPath)
	app.Flag("pip-arg", "Extra argument for pip install (repeatable).").StringsVar(&c.PipArgs)

	return c
}

func (r RootCommand) packsPath() string {
	if r.PacksPath != "" {
		return r.PacksPath
	}
	return filepath.Join(r.BasePath, conventions.PacksDir)
}

func (r RootCommand) dbPath() string {
	if r.DBPath != "" {
		return r.DBPath
	}
	return filepath.Join(r.BasePath, conventions.DBFile)
}

func (r RootCommand) interpreter() []string {
	return strings.Fields(r.Python)
}

func (r RootCommand) printer(format string) printer.Printer {
	if format == outputJSON {
		return printer.NewJSONPrinter(r.Stdout)
	}
	return printer.NewTablePrinter(r.Stdout)
}

func (r RootCommand) newRepository(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.dbPath(),
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}
	return repo, nil
}

// deps are the components shared by the commands that work with packs.
type deps struct {
	packs     *pack.FSRegistry
	installer *installer.PipInstaller
	envs      *virtualenv.Provisioner
	executor  *process.Executor
}

func (r RootCommand) newDeps(recorder metrics.Recorder) (*deps, error) {
	interpreter := r.interpreter()
	if len(interpreter) == 0 {
		return nil, fmt.Errorf("python interpreter is required")
	}

	packs, err := pack.NewFSRegistry(pack.FSRegistryConfig{
		PacksPath: r.packsPath(),
		Logger:    r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create pack registry: %w", err)
	}

	inst, err := installer.NewPipInstaller(installer.PipInstallerConfig{
		Command:   append(append([]string{}, interpreter...), "-m", "pip"),
		ExtraArgs: r.PipArgs,
		Logger:    r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create installer: %w", err)
	}

	envs, err := virtualenv.NewProvisioner(virtualenv.ProvisionerConfig{
		BasePath:  r.BasePath,
		Installer: inst,
		Metrics:   recorder,
		Logger:    r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create environment provisioner: %w", err)
	}

	executor, err := process.NewExecutor(process.ExecutorConfig{
		VirtualenvsPath:  conventions.VirtualenvsPath(r.BasePath),
		Interpreter:      interpreter,
		GlobalSearchPath: r.GlobalPath,
		Logger:           r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create executor: %w", err)
	}

	return &deps{
		packs:     packs,
		installer: inst,
		envs:      envs,
		executor:  executor,
	}, nil
}
