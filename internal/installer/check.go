package installer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/slok/packrun/internal/model"
)

// Check verifies that pip can be invoked.
func (p *PipInstaller) Check(ctx context.Context) []model.CheckResult {
	args := append([]string{}, p.command[1:]...)
	args = append(args, "--version")

	out, err := exec.CommandContext(ctx, p.command[0], args...).CombinedOutput()
	if err != nil {
		return []model.CheckResult{{
			ID:      "pip_available",
			Message: fmt.Sprintf("%q is not runnable: %v", strings.Join(p.command, " "), err),
			Status:  model.CheckStatusError,
		}}
	}

	return []model.CheckResult{{
		ID:      "pip_available",
		Message: strings.TrimSpace(string(out)),
		Status:  model.CheckStatusOK,
	}}
}
