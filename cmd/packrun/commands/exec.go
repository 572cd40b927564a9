package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/packrun/internal/model"
)

type ExecListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	pack   string
	status string
	limit  int
	format string
}

// NewExecListCommand returns the exec list command.
func NewExecListCommand(rootCmd *RootCommand, execCmd *kingpin.CmdClause) *ExecListCommand {
	c := &ExecListCommand{rootCmd: rootCmd}

	c.Cmd = execCmd.Command("list", "List the latest action executions.")
	c.Cmd.Flag("pack", "Filter by pack.").StringVar(&c.pack)
	c.Cmd.Flag("status", "Filter by status (succeeded, failed).").EnumVar(&c.status, string(model.ExecutionStatusSucceeded), string(model.ExecutionStatusFailed))
	c.Cmd.Flag("limit", "Maximum number of executions.").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c ExecListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecListCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	q := model.Query{
		Filters: map[string]string{},
		OrderBy: []string{"-started_at"},
		Limit:   c.limit,
	}
	if c.pack != "" {
		q.Filters["pack"] = c.pack
	}
	if c.status != "" {
		q.Filters["status"] = c.status
	}

	execs, err := repo.ListExecutions(ctx, q)
	if err != nil {
		return fmt.Errorf("could not list executions: %w", err)
	}

	if err := c.rootCmd.printer(c.format).PrintExecutionList(execs); err != nil {
		return fmt.Errorf("could not print executions: %w", err)
	}

	return nil
}

type ExecGetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewExecGetCommand returns the exec get command.
func NewExecGetCommand(rootCmd *RootCommand, execCmd *kingpin.CmdClause) *ExecGetCommand {
	c := &ExecGetCommand{rootCmd: rootCmd}

	c.Cmd = execCmd.Command("get", "Show an action execution with its output.")
	c.Cmd.Arg("id", "Execution ID.").Required().StringVar(&c.id)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c ExecGetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecGetCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	execution, err := repo.GetExecution(ctx, c.id)
	if err != nil {
		return fmt.Errorf("could not get execution: %w", err)
	}

	if err := c.rootCmd.printer(c.format).PrintExecution(*execution); err != nil {
		return fmt.Errorf("could not print execution: %w", err)
	}

	return nil
}
