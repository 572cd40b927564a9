package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/packrun/internal/app/run"
	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/utils/env"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	pack       string
	entryPoint string
	params     []string
	paramsJSON string
	noSandbox  bool
	timeout    time.Duration
	envSpecs   []string
	format     string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a pack action.")
	c.Cmd.Arg("pack", "Pack name.").Required().StringVar(&c.pack)
	c.Cmd.Arg("entry-point", "Action script, relative to the pack actions directory.").Required().StringVar(&c.entryPoint)
	c.Cmd.Flag("param", "Action parameter as key=value, JSON values are decoded (repeatable).").Short('p').StringsVar(&c.params)
	c.Cmd.Flag("params-json", "Action parameters as a JSON object, --param entries override its keys.").StringVar(&c.paramsJSON)
	c.Cmd.Flag("no-sandbox", "Run without the pack environment, only global libraries are available.").BoolVar(&c.noSandbox)
	c.Cmd.Flag("timeout", "Action execution timeout (0 uses the default).").Default("0s").DurationVar(&c.timeout)
	c.Cmd.Flag("env", "Environment variable for the action as KEY=VALUE or KEY to inherit (repeatable).").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	params, err := env.ParseParams(c.paramsJSON, c.params)
	if err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	actionEnv, err := env.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid env: %w", err)
	}

	d, err := c.rootCmd.newDeps(metrics.Noop)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := run.NewService(run.ServiceConfig{
		Packs:        d.packs,
		Environments: d.envs,
		Executor:     d.executor,
		Repository:   repo,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	execution, runErr := svc.Run(ctx, run.Request{
		Pack:           c.pack,
		EntryPoint:     c.entryPoint,
		Params:         params,
		SandboxEnabled: !c.noSandbox,
		Timeout:        c.timeout,
		Env:            actionEnv,
	})
	if execution != nil {
		if err := c.rootCmd.printer(c.format).PrintExecution(*execution); err != nil {
			return fmt.Errorf("could not print execution: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("could not run action: %w", runErr)
	}

	return nil
}
