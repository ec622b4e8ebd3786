//go:build !unix

package exec

import "os/exec"

func killProcessGroupOnCancel(cmd *exec.Cmd) {}
