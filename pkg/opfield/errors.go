package opfield

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Validation error codes.
const (
	CodeInvalid       = "invalid"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidVault  = "invalid_vault"
	CodeMaxLength     = "max_length"
)

// DefaultValidationMessage is reported for malformed references.
const DefaultValidationMessage = "Enter a valid 1Password URI."

var (
	// ErrReadOnly is returned by every attempt to write a resolved secret.
	ErrReadOnly = errors.New("OPField does not support setting secret values")

	// ErrTokenNotSet means no service account token could be resolved.
	ErrTokenNotSet = errors.New("OP_SERVICE_ACCOUNT_TOKEN is not set")

	// ErrCLINotFound means the op executable was neither configured nor on PATH.
	ErrCLINotFound = errors.New("could not find the 'op' CLI command")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("op command timed out")
)

// ValidationError reports a malformed or disallowed secret reference.
type ValidationError struct {
	Code    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigError reports a setting that could not be resolved.
type ConfigError struct {
	Setting string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Setting != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Setting, msg)
	}
	return "configuration error: " + msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a non-zero exit from the op CLI.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	return "Could not read secret from 1Password: " + e.Stderr
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports an op invocation aborted at its deadline.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command '%s' timed out after %s", e.Command, e.Timeout)
}

// Is matches ErrTimeout and context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}

// ValidationCode returns the code of a *ValidationError in err's chain, or "".
func ValidationCode(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}

// ValidationCodes returns the code of every *ValidationError in err, in order.
// It descends into errors.Join results.
func ValidationCodes(err error) []string {
	var codes []string
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *ValidationError:
			codes = append(codes, x.Code)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return codes
}
