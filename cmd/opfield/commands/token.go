package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/pkg/opfield"
)

func NewTokenCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the service account token in the OS keyring",
		Long: fmt.Sprintf(`Store or remove the 1Password service account token in the OS keyring.

The keyring is the last place opfield looks for a token, after the
'settings' block of opfield.yaml and the %s environment variable.`,
			opfield.SettingServiceAccountToken),
	}

	cmd.AddCommand(newTokenSetCommand(cfg), newTokenClearCommand(cfg))
	return cmd
}

func newTokenSetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Read a token from stdin and store it",
		Long: `Read a service account token from standard input and store it in the OS
keyring. The token is never accepted as an argument.

Examples:
  opfield token set < token.txt
  op read op://Ops/opfield/token | opfield token set`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := opfield.NewSystemKeyring().SetToken(token); err != nil {
				return dserrors.UserError{
					Message:    "Failed to store token in the OS keyring",
					Details:    err.Error(),
					Suggestion: fmt.Sprintf("Export %s instead", opfield.SettingServiceAccountToken),
					Err:        err,
				}
			}
			cfg.Logger.Info("Token stored in the OS keyring")
			return nil
		},
	}
}

func newTokenClearCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opfield.NewSystemKeyring().DeleteToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			cfg.Logger.Info("Token removed from the OS keyring")
			return nil
		},
	}
}

func readToken(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var token string
	if scanner.Scan() {
		token = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", dserrors.UserError{
			Message:    "No token provided on stdin",
			Suggestion: "Pipe the token in: opfield token set < token.txt",
		}
	}
	return token, nil
}
