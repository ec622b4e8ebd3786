// Package exec provides abstractions for command execution.
// This package enables testable code by allowing the op CLI to be mocked.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// group is killed.
const waitDelay = 100 * time.Millisecond

// Command describes a single non-interactive process invocation.
type Command struct {
	// Path is the executable to run.
	Path string
	// Args are passed after Path.
	Args []string
	// Env replaces the child environment when non-nil.
	Env []string
}

// String renders the command line without its environment.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// CommandExecutor defines an interface for executing external commands.
// This abstraction allows for mocking CLI tool behavior in tests.
type CommandExecutor interface {
	// Execute runs a command with the given context.
	// Returns stdout, stderr, and any error that occurred.
	Execute(ctx context.Context, cmd Command) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor executes actual commands using os/exec.
// This is the production implementation.
type RealCommandExecutor struct{}

// Execute runs an actual command. Stdin is never attached.
func (r *RealCommandExecutor) Execute(ctx context.Context, c Command) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultExecutor returns the standard production executor.
// This is used as the default when no executor is injected.
func DefaultExecutor() CommandExecutor {
	return &RealCommandExecutor{}
}

// ExitCode extracts the process exit code from an Execute error.
// It returns 0 for a nil error and -1 when the process never exited normally.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	// *exec.ExitError satisfies this through its embedded *os.ProcessState.
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
