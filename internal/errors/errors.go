package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/opfield/pkg/opfield"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents a command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
	Err        error
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// Explain converts opfield errors into user-facing errors with suggestions.
// Other errors are returned unchanged.
func Explain(err error) error {
	if err == nil {
		return nil
	}

	var (
		verr    *opfield.ValidationError
		cfgErr  *opfield.ConfigError
		execErr *opfield.ExecutionError
		tErr    *opfield.TimeoutError
	)
	switch {
	case errors.As(err, &verr):
		codes := opfield.ValidationCodes(err)
		msg := verr.Message
		if len(codes) > 1 {
			msg = err.Error()
		}
		return UserError{
			Message:    msg,
			Details:    "code: " + strings.Join(codes, ", "),
			Suggestion: validationSuggestion(verr.Code),
			Err:        err,
		}
	case errors.As(err, &cfgErr):
		return ConfigError{
			Field:      cfgErr.Setting,
			Message:    cfgErrMessage(cfgErr),
			Suggestion: configSuggestion(cfgErr),
			Err:        err,
		}
	case errors.As(err, &execErr):
		return CommandError{
			Command:    execErr.Command,
			ExitCode:   execErr.ExitCode,
			Message:    execErr.Error(),
			Suggestion: onePasswordSuggestion(execErr.Stderr),
			Err:        err,
		}
	case errors.As(err, &tErr):
		return UserError{
			Message:    tErr.Error(),
			Suggestion: fmt.Sprintf("Raise %s or check your network connection", opfield.SettingCommandTimeout),
			Err:        err,
		}
	}
	return err
}

func cfgErrMessage(e *opfield.ConfigError) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid setting"
}

func validationSuggestion(code string) string {
	switch code {
	case opfield.CodeInvalidVault:
		return "Use one of the vaults allowed in your opfield.yaml 'vaults' list"
	case opfield.CodeMaxLength:
		return "Shorten the reference or raise the column width"
	default:
		return "Use the form op://<vault>/<item>[/<section>]/<field>"
	}
}

func configSuggestion(e *opfield.ConfigError) string {
	switch {
	case errors.Is(e, opfield.ErrTokenNotSet):
		return fmt.Sprintf("Export %s, set it in opfield.yaml, or run 'opfield token set'", opfield.SettingServiceAccountToken)
	case errors.Is(e, opfield.ErrCLINotFound):
		return fmt.Sprintf("Install 1Password CLI (https://developer.1password.com/docs/cli/get-started/) or set %s", opfield.SettingCLIPath)
	case e.Setting == opfield.SettingCommandTimeout:
		return "Use whole seconds (e.g. 10) or a duration (e.g. 1500ms)"
	}
	return ""
}

// onePasswordSuggestion maps common op CLI stderr messages to hints
func onePasswordSuggestion(stderr string) string {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "not signed in"), strings.Contains(s, "authorization"), strings.Contains(s, "invalid token"):
		return fmt.Sprintf("Check that %s is a valid service account token", opfield.SettingServiceAccountToken)
	case strings.Contains(s, "isn't a vault"), strings.Contains(s, "vault") && strings.Contains(s, "not found"):
		return "Verify the vault name and that the service account can access it"
	case strings.Contains(s, "isn't an item"), strings.Contains(s, "not found"):
		return "Verify the item exists. Use 'op item list --vault <vault>' to see available items"
	case strings.Contains(s, "rate limit"), strings.Contains(s, "too many requests"):
		return "1Password rate limit exceeded. Wait a moment and try again"
	}
	return ""
}
