//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the child in its own process group and kills the whole
// group on context cancellation, so processes spawned by the action die too.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// Negative PID kills the process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
