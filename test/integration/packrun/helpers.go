package packrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
	Python string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "packrun"
	}

	// go test changes the CWD to the test package directory, relative paths would be misleading.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("PACKRUN_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("packrun binary not found at %q: %w", c.Binary, err)
	}

	if c.Python == "" {
		c.Python = "python3"
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "PACKRUN_INTEGRATION"
		envBinary     = "PACKRUN_INTEGRATION_BINARY"
		envPython     = "PACKRUN_INTEGRATION_PYTHON"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
		Python: os.Getenv(envPython),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Workspace is an isolated packrun base path with the test packs installed.
type Workspace struct {
	Config   Config
	BasePath string
}

// NewWorkspace copies the testdata packs into a new base path.
func NewWorkspace(t *testing.T, cfg Config) Workspace {
	t.Helper()

	basePath := t.TempDir()
	packsPath := filepath.Join(basePath, "packs")
	err := os.CopyFS(packsPath, os.DirFS(filepath.Join("testdata", "packs")))
	require.NoError(t, err)

	return Workspace{Config: cfg, BasePath: basePath}
}

// Run runs packrun on the workspace.
func (w Workspace) Run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	env := []string{
		"PACKRUN_BASE_PATH=" + w.BasePath,
		"PACKRUN_PYTHON=" + w.Config.Python,
	}
	return testutils.RunPackrun(ctx, w.Config.Binary, args, env, true)
}

// RunJSON runs packrun with JSON output and decodes it.
func (w Workspace) RunJSON(ctx context.Context, out any, args ...string) error {
	stdout, stderr, err := w.Run(ctx, append(args, "--output", "json")...)
	if jerr := json.Unmarshal(stdout, out); jerr != nil {
		return fmt.Errorf("could not decode output %q (stderr: %s, run error: %v): %w", stdout, stderr, err, jerr)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// VirtualenvsPath returns the directory with the workspace pack environments.
func (w Workspace) VirtualenvsPath() string {
	return filepath.Join(w.BasePath, "virtualenvs")
}

// IsWithin returns true when path is inside dir.
func IsWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RequireGlobalModule skips the test when the python module can't be imported
// from the interpreter global libraries.
func RequireGlobalModule(t *testing.T, cfg Config, module string) {
	t.Helper()

	python := strings.Fields(cfg.Python)
	args := append(python[1:], "-c", "import "+module)
	cmd := exec.Command(python[0], args...)
	cmd.Env = append(os.Environ(), "PYTHONPATH=")
	if err := cmd.Run(); err != nil {
		t.Skipf("Skipping: %q module is not installed globally", module)
	}
}
