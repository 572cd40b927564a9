package virtualenv

import (
	"context"
	"fmt"
	"os"

	"github.com/slok/packrun/internal/conventions"
	"github.com/slok/packrun/internal/model"
)

// Check verifies the environments directory can be written.
func (p *Provisioner) Check(_ context.Context) []model.CheckResult {
	dir := conventions.VirtualenvsPath(p.basePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return []model.CheckResult{{
			ID:      "environments_dir",
			Message: fmt.Sprintf("Cannot create %s: %v", dir, err),
			Status:  model.CheckStatusError,
		}}
	}

	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return []model.CheckResult{{
			ID:      "environments_dir",
			Message: fmt.Sprintf("No write permission to %s: %v", dir, err),
			Status:  model.CheckStatusError,
		}}
	}
	f.Close()
	os.Remove(f.Name())

	return []model.CheckResult{{
		ID:      "environments_dir",
		Message: fmt.Sprintf("%s is writable", dir),
		Status:  model.CheckStatusOK,
	}}
}
