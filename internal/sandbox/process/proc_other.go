//go:build !unix

package process

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}
