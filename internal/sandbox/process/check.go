package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/slok/packrun/internal/model"
)

// Check runs preflight checks for the action interpreter and the global library path.
func (e *Executor) Check(ctx context.Context) []model.CheckResult {
	results := []model.CheckResult{e.checkInterpreter(ctx)}
	for _, p := range e.globalSearchPath {
		results = append(results, checkGlobalPath(p))
	}
	return results
}

func (e *Executor) checkInterpreter(ctx context.Context) model.CheckResult {
	bin, err := exec.LookPath(e.interpreter[0])
	if err != nil {
		return model.CheckResult{
			ID:      "interpreter_available",
			Message: fmt.Sprintf("Interpreter %q not found in PATH", e.interpreter[0]),
			Status:  model.CheckStatusError,
		}
	}

	out, err := exec.CommandContext(ctx, bin, "--version").CombinedOutput()
	if err != nil {
		return model.CheckResult{
			ID:      "interpreter_available",
			Message: fmt.Sprintf("Interpreter %s is not runnable: %v", bin, err),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "interpreter_available",
		Message: fmt.Sprintf("%s (%s)", strings.TrimSpace(string(out)), bin),
		Status:  model.CheckStatusOK,
	}
}

func checkGlobalPath(path string) model.CheckResult {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return model.CheckResult{
			ID:      "global_library_path",
			Message: fmt.Sprintf("Global library path %s is not a directory", path),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "global_library_path",
		Message: fmt.Sprintf("Global library path %s found", path),
		Status:  model.CheckStatusOK,
	}
}
