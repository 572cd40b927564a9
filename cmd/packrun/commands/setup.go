package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/packrun/internal/app/setup"
	"github.com/slok/packrun/internal/metrics"
)

type SetupCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	pack   string
	format string
}

// NewSetupCommand returns the setup command.
func NewSetupCommand(rootCmd *RootCommand, app *kingpin.Application) *SetupCommand {
	c := &SetupCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("setup", "Create the isolated dependency environment of a pack.")
	c.Cmd.Arg("pack", "Pack name.").Required().StringVar(&c.pack)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c SetupCommand) Name() string { return c.Cmd.FullCommand() }

func (c SetupCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	d, err := c.rootCmd.newDeps(metrics.Noop)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := setup.NewService(setup.ServiceConfig{
		Packs:        d.packs,
		Environments: d.envs,
		Repository:   repo,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	env, err := svc.Setup(ctx, setup.Request{Pack: c.pack})
	if err != nil {
		return fmt.Errorf("could not setup pack %s: %w", c.pack, err)
	}

	if err := c.rootCmd.printer(c.format).PrintEnvironment(*env); err != nil {
		return fmt.Errorf("could not print environment: %w", err)
	}

	return nil
}
