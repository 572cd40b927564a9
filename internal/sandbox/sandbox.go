package sandbox

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/slok/packrun/internal/model"
)

// Executor runs action entry points in a subprocess.
type Executor interface {
	// Run executes the request. env is the pack environment, it is required only
	// when the request has the sandbox enabled.
	Run(ctx context.Context, req model.ExecutionRequest, env *model.Environment) (*model.ExecutionResult, error)
}

// SearchPath returns the library search path for an execution.
//
// With the sandbox enabled the pack environment library goes first, followed by the
// global search path. With the sandbox disabled only the global search path is used.
// Global entries inside the environments directory are always dropped, so a pack
// environment is never resolvable unless it's the sandboxed pack one.
// Empty entries are dropped too (they would resolve to the working directory).
func SearchPath(global []string, env *model.Environment, sandboxEnabled bool, virtualenvsPath string) []string {
	paths := []string{}
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	if sandboxEnabled && env != nil {
		add(filepath.Clean(env.LibraryPath))
	}

	for _, p := range global {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if virtualenvsPath != "" && isWithin(p, virtualenvsPath) {
			continue
		}
		add(p)
	}

	return paths
}

// isWithin returns true if path is dir or is inside it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
