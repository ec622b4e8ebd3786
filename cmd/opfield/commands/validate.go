package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/pkg/opfield"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var (
		vaults     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate <op://vault/item/[section/]field>",
		Short: "Check a secret reference without contacting 1Password",
		Long: `Validate a secret reference against the reference format, the column
width and the vault allow-list. The 1Password CLI is not invoked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			var opts []opfield.Option
			if len(vaults) > 0 {
				opts = append(opts, opfield.WithVaults(vaults...))
			}
			field := cfg.Field(columnName, opts...)

			uri := opfield.URI(args[0])
			if err := field.Clean(uri); err != nil {
				return dserrors.Explain(err)
			}
			ref, err := uri.Parse()
			if err != nil {
				return dserrors.Explain(err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]string{
					"vault":   ref.Vault,
					"item":    ref.Item,
					"section": ref.Section,
					"field":   ref.Field,
				})
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "VAULT\t%s\n", ref.Vault)
			_, _ = fmt.Fprintf(w, "ITEM\t%s\n", ref.Item)
			if ref.Section != "" {
				_, _ = fmt.Fprintf(w, "SECTION\t%s\n", ref.Section)
			}
			_, _ = fmt.Fprintf(w, "FIELD\t%s\n", ref.Field)
			_ = w.Flush()

			cfg.Logger.Info("Valid 1Password reference")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&vaults, "vault", nil, "Allowed vault (repeatable, overrides opfield.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the parsed reference as JSON")

	return cmd
}
