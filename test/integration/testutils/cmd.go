package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// RunPackrun runs the packrun binary and returns its outputs. extraEnv entries
// override the inherited environment, nolog silences the application logger.
func RunPackrun(ctx context.Context, binary string, args, extraEnv []string, nolog bool) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var outb, errb bytes.Buffer
	cmd.Stdout, cmd.Stderr = &outb, &errb

	cmd.Env = append(os.Environ(), extraEnv...)
	if nolog {
		cmd.Env = append(cmd.Env, "PACKRUN_NO_LOG=true")
	}

	err = cmd.Run()
	return outb.Bytes(), errb.Bytes(), err
}
