package installer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/internal/installer"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
)

// fakePip writes a script that records its arguments and exits with the given code.
func fakePip(t *testing.T, exitCode string) (script, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	script = filepath.Join(dir, "pip.sh")
	argsFile = filepath.Join(dir, "args")
	data := "#!/bin/sh\necho \"$@\" > " + argsFile + "\necho 'ERROR: No matching distribution found for nope' >&2\nexit " + exitCode + "\n"
	require.NoError(t, os.WriteFile(script, []byte(data), 0o755))
	return script, argsFile
}

func TestPipInstallerInstall(t *testing.T) {
	tests := map[string]struct {
		exitCode string
		extra    []string
		expArgs  string
		expErr   bool
	}{
		"A successful install should call pip with the target directory.": {
			exitCode: "0",
			expArgs:  "install --no-cache-dir --disable-pip-version-check --no-input --target /env/lib -r /env/requirements.txt",
		},

		"Extra args should be appended.": {
			exitCode: "0",
			extra:    []string{"--index-url", "https://pypi.example.com/simple"},
			expArgs:  "install --no-cache-dir --disable-pip-version-check --no-input --target /env/lib -r /env/requirements.txt --index-url https://pypi.example.com/simple",
		},

		"A failing install should return the installer output.": {
			exitCode: "1",
			expArgs:  "install --no-cache-dir --disable-pip-version-check --no-input --target /env/lib -r /env/requirements.txt",
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			script, argsFile := fakePip(t, test.exitCode)

			inst, err := installer.NewPipInstaller(installer.PipInstallerConfig{
				Command:   []string{"/bin/sh", script},
				ExtraArgs: test.extra,
				Logger:    log.Noop,
			})
			require.NoError(t, err)

			err = inst.Install(context.Background(), "/env/requirements.txt", "/env/lib")

			gotArgs, rerr := os.ReadFile(argsFile)
			require.NoError(t, rerr)
			assert.Equal(t, test.expArgs, strings.TrimSpace(string(gotArgs)))

			if test.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "No matching distribution found")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipInstallerCheck(t *testing.T) {
	tests := map[string]struct {
		command   func(t *testing.T) []string
		expStatus model.CheckStatus
	}{
		"A runnable pip should pass the check.": {
			command: func(t *testing.T) []string {
				script, _ := fakePip(t, "0")
				return []string{"/bin/sh", script}
			},
			expStatus: model.CheckStatusOK,
		},

		"A failing pip should fail the check.": {
			command: func(t *testing.T) []string {
				script, _ := fakePip(t, "1")
				return []string{"/bin/sh", script}
			},
			expStatus: model.CheckStatusError,
		},

		"A missing pip should fail the check.": {
			command: func(t *testing.T) []string {
				return []string{"packrun-missing-python", "-m", "pip"}
			},
			expStatus: model.CheckStatusError,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inst, err := installer.NewPipInstaller(installer.PipInstallerConfig{Command: test.command(t)})
			require.NoError(t, err)

			results := inst.Check(context.Background())
			require.Len(t, results, 1)
			assert.Equal(t, "pip_available", results[0].ID)
			assert.Equal(t, test.expStatus, results[0].Status)
		})
	}
}
