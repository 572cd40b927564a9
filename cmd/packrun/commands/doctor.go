package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/model"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run preflight checks for installing and running pack actions.")

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	out := c.rootCmd.Stdout

	d, err := c.rootCmd.newDeps(metrics.Noop)
	if err != nil {
		return err
	}

	groups := []checkGroup{
		{name: "interpreter", results: d.executor.Check(ctx)},
		{name: "installer", results: d.installer.Check(ctx)},
		{name: "environments", results: d.envs.Check(ctx)},
		{name: "packs", results: []model.CheckResult{checkPacksPath(c.rootCmd.packsPath())}},
	}

	var all []model.CheckResult
	for _, g := range groups {
		fmt.Fprintf(out, "\nChecking %s...\n", g.name)
		for _, r := range g.results {
			fmt.Fprintf(out, "  %s %-22s %s\n", getStatusIcon(r.Status), r.ID, r.Message)
		}
		all = append(all, g.results...)
	}

	fmt.Fprintln(out)
	sum := model.Summarize(all)
	switch {
	case sum.Errors == 0 && sum.Warnings == 0:
		fmt.Fprintf(out, "All %d checks passed!\n", sum.OK)
	case sum.Errors == 0:
		fmt.Fprintf(out, "%d ok, %d warning(s)\n", sum.OK, sum.Warnings)
	default:
		fmt.Fprintf(out, "%d ok, %d warning(s), %d error(s)\n", sum.OK, sum.Warnings, sum.Errors)
	}

	if !sum.Healthy() {
		return fmt.Errorf("doctor found %d error(s)", sum.Errors)
	}

	return nil
}

type checkGroup struct {
	name    string
	results []model.CheckResult
}

func checkPacksPath(path string) model.CheckResult {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return model.CheckResult{
			ID:      "packs_dir",
			Message: fmt.Sprintf("Packs directory %s not found", path),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "packs_dir",
		Message: fmt.Sprintf("Packs directory %s found", path),
		Status:  model.CheckStatusOK,
	}
}

func getStatusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}
