package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/packrun/internal/app/envremove"
	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/model"
)

type EnvListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewEnvListCommand returns the env list command.
func NewEnvListCommand(rootCmd *RootCommand, envCmd *kingpin.CmdClause) *EnvListCommand {
	c := &EnvListCommand{rootCmd: rootCmd}

	c.Cmd = envCmd.Command("list", "List the pack environments.")
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c EnvListCommand) Name() string { return c.Cmd.FullCommand() }

func (c EnvListCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	envs, err := repo.ListEnvironments(ctx, model.Query{})
	if err != nil {
		return fmt.Errorf("could not list environments: %w", err)
	}

	if err := c.rootCmd.printer(c.format).PrintEnvironmentList(envs); err != nil {
		return fmt.Errorf("could not print environments: %w", err)
	}

	return nil
}

type EnvRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	pack  string
	force bool
}

// NewEnvRmCommand returns the env rm command.
func NewEnvRmCommand(rootCmd *RootCommand, envCmd *kingpin.CmdClause) *EnvRmCommand {
	c := &EnvRmCommand{rootCmd: rootCmd}

	c.Cmd = envCmd.Command("rm", "Remove the environment of a pack.")
	c.Cmd.Arg("pack", "Pack name.").Required().StringVar(&c.pack)
	c.Cmd.Flag("force", "Don't fail when the environment doesn't exist.").BoolVar(&c.force)

	return c
}

func (c EnvRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c EnvRmCommand) Run(ctx context.Context) error {
	d, err := c.rootCmd.newDeps(metrics.Noop)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := envremove.NewService(envremove.ServiceConfig{
		Environments: d.envs,
		Repository:   repo,
		Logger:       c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	err = svc.Remove(ctx, envremove.Request{Pack: c.pack})
	if err != nil && !(c.force && errors.Is(err, model.ErrNotFound)) {
		return fmt.Errorf("could not remove environment: %w", err)
	}

	return c.rootCmd.printer(outputTable).PrintMessage(fmt.Sprintf("Environment %s removed", c.pack))
}
