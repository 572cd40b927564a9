package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/packrun/internal/model"
)

// TablePrinter prints packrun information for humans.
type TablePrinter struct {
	writer io.Writer
}

var _ Printer = &TablePrinter{}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintEnvironmentList prints environments in a table format.
func (t *TablePrinter) PrintEnvironmentList(envs []model.Environment) error {
	if len(envs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "PACK\tREQUIREMENTS\tCREATED")
	for _, e := range envs {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Pack, len(e.Requirements), TimeAgo(e.CreatedAt))
	}

	return nil
}

// PrintEnvironment prints the details of an environment.
func (t *TablePrinter) PrintEnvironment(env model.Environment) error {
	fmt.Fprintf(t.writer, "Pack:          %s\n", env.Pack)
	fmt.Fprintf(t.writer, "Path:          %s\n", env.Path)
	fmt.Fprintf(t.writer, "Library:       %s\n", env.LibraryPath)
	fmt.Fprintf(t.writer, "Digest:        %s\n", env.ManifestDigest)
	fmt.Fprintf(t.writer, "Created:       %s\n", FormatTimestamp(env.CreatedAt))
	if len(env.Requirements) == 0 {
		fmt.Fprintf(t.writer, "Requirements:  none\n")
		return nil
	}

	fmt.Fprintf(t.writer, "Requirements:\n")
	for _, r := range env.Requirements {
		fmt.Fprintf(t.writer, "  - %s\n", r)
	}

	return nil
}

// PrintExecutionList prints executions in a table format.
func (t *TablePrinter) PrintExecutionList(execs []model.Execution) error {
	if len(execs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tPACK\tACTION\tSTATUS\tSANDBOX\tDURATION\tSTARTED")
	for _, e := range execs {
		status := string(e.Status)
		if e.ErrorKind != "" {
			status += " (" + string(e.ErrorKind) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			e.ID,
			e.Pack,
			e.Action,
			status,
			e.SandboxEnabled,
			FormatDuration(e.FinishedAt.Sub(e.StartedAt)),
			TimeAgo(e.StartedAt),
		)
	}

	return nil
}

// PrintExecution prints the details of an execution, including its output.
func (t *TablePrinter) PrintExecution(e model.Execution) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", e.ID)
	fmt.Fprintf(t.writer, "Action:      %s.%s\n", e.Pack, e.Action)
	fmt.Fprintf(t.writer, "Entry point: %s\n", e.EntryPoint)
	fmt.Fprintf(t.writer, "Sandbox:     %t\n", e.SandboxEnabled)
	fmt.Fprintf(t.writer, "Status:      %s\n", e.Status)
	if e.ErrorKind != "" {
		fmt.Fprintf(t.writer, "Error:       [%s] %s\n", e.ErrorKind, e.Error)
	}
	fmt.Fprintf(t.writer, "Exit code:   %d\n", e.ExitCode)
	fmt.Fprintf(t.writer, "Started:     %s\n", FormatTimestamp(e.StartedAt))
	fmt.Fprintf(t.writer, "Duration:    %s\n", FormatDuration(e.FinishedAt.Sub(e.StartedAt)))

	if e.Result != nil {
		result, err := json.MarshalIndent(e.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("could not format result: %w", err)
		}
		fmt.Fprintf(t.writer, "Result:\n%s\n", indent(string(result)))
	}
	if e.Stdout != "" {
		fmt.Fprintf(t.writer, "Stdout:\n%s\n", indent(e.Stdout))
	}
	if e.Stderr != "" {
		fmt.Fprintf(t.writer, "Stderr:\n%s\n", indent(e.Stderr))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
