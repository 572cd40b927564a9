package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/packrun/internal/app/resource"
	"github.com/slok/packrun/internal/model"
)

// JSONPrinter prints packrun information in JSON format, using the same
// representation as the HTTP API.
type JSONPrinter struct {
	writer io.Writer
}

var _ Printer = &JSONPrinter{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type messageOutput struct {
	Message string `json:"message"`
}

func (j *JSONPrinter) PrintEnvironmentList(envs []model.Environment) error {
	items := make([]resource.EnvironmentAPI, 0, len(envs))
	for _, e := range envs {
		items = append(items, resource.EnvironmentFromModel(e))
	}
	return j.encode(items)
}

func (j *JSONPrinter) PrintEnvironment(env model.Environment) error {
	return j.encode(resource.EnvironmentFromModel(env))
}

func (j *JSONPrinter) PrintExecutionList(execs []model.Execution) error {
	items := make([]resource.ExecutionAPI, 0, len(execs))
	for _, e := range execs {
		items = append(items, resource.ExecutionFromModel(e))
	}
	return j.encode(items)
}

func (j *JSONPrinter) PrintExecution(e model.Execution) error {
	return j.encode(resource.ExecutionFromModel(e))
}

func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
