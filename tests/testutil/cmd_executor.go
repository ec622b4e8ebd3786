package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/systmms/opfield/pkg/exec"
)

// MockCommandExecutor provides a configurable mock for the op CLI.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps argument patterns to their mock responses.
	// Key format: "arg1 arg2" (space-separated args, executable path excluded)
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching pattern is found.
	DefaultResponse *MockResponse

	// RecordedCalls stores all calls made to Execute for verification.
	RecordedCalls []RecordedCall

	// StrictMode causes Execute to fail if no matching response is found.
	StrictMode bool
}

// MockResponse defines the expected output for a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
	// Block makes Execute wait for the context to be done and return its error.
	Block bool
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command exec.Command
	Context context.Context
}

// Env looks up a variable in the recorded child environment.
func (c RecordedCall) Env(key string) (string, bool) {
	prefix := key + "="
	for _, kv := range c.Command.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), true
		}
	}
	return "", false
}

// NewMockCommandExecutor creates a new mock executor with empty responses.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses:     make(map[string]MockResponse),
		RecordedCalls: make([]RecordedCall, 0),
	}
}

// Execute returns the mocked response for the given command.
func (m *MockCommandExecutor) Execute(ctx context.Context, cmd exec.Command) ([]byte, []byte, error) {
	resp, err := m.lookup(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	if resp.Block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return resp.Stdout, resp.Stderr, resp.Err
}

func (m *MockCommandExecutor) lookup(ctx context.Context, cmd exec.Command) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{Command: cmd, Context: ctx})

	key := strings.Join(cmd.Args, " ")
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	for pattern, resp := range m.Responses {
		if strings.HasPrefix(key, pattern) {
			return resp, nil
		}
	}
	if m.DefaultResponse != nil {
		return *m.DefaultResponse, nil
	}
	if m.StrictMode {
		return MockResponse{}, fmt.Errorf("mock: no response configured for command: %s", cmd)
	}
	return MockResponse{Stdout: []byte{}, Stderr: []byte{}}, nil
}

// AddResponse registers a mock response for an argument pattern.
func (m *MockCommandExecutor) AddResponse(argsPattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[argsPattern] = response
}

// AddSecret registers a successful "read <uri>" response.
func (m *MockCommandExecutor) AddSecret(uri, value string) {
	m.AddResponse("read "+uri, MockResponse{Stdout: []byte(value)})
}

// AddErrorResponse adds a failing response whose error carries the given exit code.
func (m *MockCommandExecutor) AddErrorResponse(argsPattern string, errMsg string, exitCode int) {
	m.AddResponse(argsPattern, MockResponse{
		Stdout: []byte{},
		Stderr: []byte(errMsg),
		Err:    ExitError{Code: exitCode},
	})
}

// Calls returns a copy of every recorded call.
func (m *MockCommandExecutor) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedCall(nil), m.RecordedCalls...)
}

// CallCount returns the number of times Execute was called.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// LastCall returns the most recent call. It panics when there was none.
func (m *MockCommandExecutor) LastCall() RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RecordedCalls[len(m.RecordedCalls)-1]
}

// ExitError simulates a non-zero process exit.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode mirrors (*os/exec.ExitError).ExitCode.
func (e ExitError) ExitCode() int {
	return e.Code
}
