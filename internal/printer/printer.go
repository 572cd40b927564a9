package printer

import "github.com/slok/packrun/internal/model"

// Printer knows how to print packrun information in different formats.
type Printer interface {
	PrintEnvironmentList(envs []model.Environment) error
	PrintEnvironment(env model.Environment) error
	PrintExecutionList(execs []model.Execution) error
	PrintExecution(e model.Execution) error
	PrintMessage(msg string) error
}
