package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/pkg/opfield"
)

func NewReadCommand(cfg *config.Config) *cobra.Command {
	var vaults []string

	cmd := &cobra.Command{
		Use:   "read <op://vault/item/[section/]field>",
		Short: "Resolve a secret reference through the 1Password CLI",
		Long: `Resolve a single secret reference and print its value.

The reference is validated first, then 'op read' runs with the resolved
service account token. Nothing is cached: every call asks 1Password again.

Examples:
  # Print a secret
  opfield read op://Production/db/password

  # Only allow references into specific vaults
  opfield read --vault Production op://Production/db/password

  # Use in scripts
  export DB_PASSWORD=$(opfield read op://Production/db/password)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			field, err := readerField(cfg, vaults)
			if err != nil {
				return err
			}

			secret, err := field.Secret(cmd.Context(), opfield.URI(args[0]))
			if err != nil {
				return dserrors.Explain(err)
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), secret)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&vaults, "vault", nil, "Allowed vault (repeatable, overrides opfield.yaml)")

	return cmd
}
