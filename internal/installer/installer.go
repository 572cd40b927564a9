package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/slok/packrun/internal/log"
)

// Installer installs dependency manifests into a target library directory.
type Installer interface {
	// Install installs every requirement of the requirements file into targetDir.
	Install(ctx context.Context, requirementsFile, targetDir string) error
}

// InstallerFunc is a convenience adapter to allow the use of ordinary functions as Installers.
type InstallerFunc func(ctx context.Context, requirementsFile, targetDir string) error

func (f InstallerFunc) Install(ctx context.Context, requirementsFile, targetDir string) error {
	return f(ctx, requirementsFile, targetDir)
}

const maxOutputInError = 4 << 10

// PipInstallerConfig is the configuration for the pip installer.
type PipInstallerConfig struct {
	// Command is the pip invocation, defaults to `python3 -m pip`.
	Command []string
	// ExtraArgs are appended to the install arguments (e.g. index options).
	ExtraArgs []string
	Logger    log.Logger
}

func (c *PipInstallerConfig) defaults() error {
	if len(c.Command) == 0 {
		c.Command = []string{"python3", "-m", "pip"}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "installer.Pip"})
	return nil
}

// PipInstaller installs requirements using pip with a target directory, so the
// installed libraries are isolated from the interpreter site-packages.
type PipInstaller struct {
	command   []string
	extraArgs []string
	logger    log.Logger
}

// NewPipInstaller returns a new pip installer.
func NewPipInstaller(cfg PipInstallerConfig) (*PipInstaller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &PipInstaller{
		command:   cfg.Command,
		extraArgs: cfg.ExtraArgs,
		logger:    cfg.Logger,
	}, nil
}

// Install runs pip install for the requirements file into targetDir.
func (p *PipInstaller) Install(ctx context.Context, requirementsFile, targetDir string) error {
	args := append([]string{}, p.command[1:]...)
	args = append(args,
		"install",
		"--no-cache-dir",
		"--disable-pip-version-check",
		"--no-input",
		"--target", targetDir,
		"-r", requirementsFile,
	)
	args = append(args, p.extraArgs...)

	cmd := exec.CommandContext(ctx, p.command[0], args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	p.logger.Debugf("Running %s %s", p.command[0], strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pip install failed: %w: %s", err, tail(out.String(), maxOutputInError))
	}

	p.logger.Debugf("Installed %s into %s", requirementsFile, targetDir)
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
