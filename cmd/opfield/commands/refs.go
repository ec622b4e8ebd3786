package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/internal/store"
	"github.com/systmms/opfield/pkg/opfield"
)

// openStore connects to the configured reference table. Tests replace it.
var openStore = func(ctx context.Context, cfg *config.Config, field *opfield.Field) (*store.Store, error) {
	db := cfg.Definition.Database
	if db.Driver == "" || db.DSN == "" {
		return nil, dserrors.ConfigError{
			Field:      "database",
			Message:    "no database configured",
			Suggestion: "Add database.driver and database.dsn to opfield.yaml",
		}
	}
	return store.Open(ctx, db.Driver, db.DSN, db.Table, field)
}

func NewRefsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Manage stored secret references",
		Long: `Manage named secret references stored in the configured database.

Only the op:// reference is stored. Use 'opfield refs read' to resolve one.`,
	}

	cmd.AddCommand(
		newRefsInitCommand(cfg),
		newRefsAddCommand(cfg),
		newRefsGetCommand(cfg),
		newRefsListCommand(cfg),
		newRefsRemoveCommand(cfg),
		newRefsReadCommand(cfg),
	)

	return cmd
}

// withStore loads the config, opens the store and closes it after fn.
func withStore(cmd *cobra.Command, cfg *config.Config, resolve bool, fn func(*store.Store) error) error {
	if err := cfg.Load(); err != nil {
		return err
	}

	field := cfg.Field(columnName)
	if resolve {
		var err error
		if field, err = readerField(cfg, nil); err != nil {
			return err
		}
	}

	s, err := openStore(cmd.Context(), cfg, field)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return explainStoreError(fn(s))
}

func explainStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return dserrors.UserError{
			Message:    err.Error(),
			Suggestion: "Use 'opfield refs list' to see stored references",
			Err:        err,
		}
	}
	return dserrors.Explain(err)
}

func newRefsInitCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the reference table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, false, func(s *store.Store) error {
				if err := s.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				cfg.Logger.Info("Reference table ready")
				return nil
			})
		},
	}
}

func newRefsAddCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <op://vault/item/[section/]field>",
		Short: "Store or replace a named reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, false, func(s *store.Store) error {
				if err := s.Put(cmd.Context(), args[0], opfield.URI(args[1])); err != nil {
					return err
				}
				cfg.Logger.Info("Stored reference %s", args[0])
				return nil
			})
		},
	}
}

func newRefsGetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, false, func(s *store.Store) error {
				rec, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), rec.URI)
				return nil
			})
		},
	}
}

func newRefsListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, false, func(s *store.Store) error {
				records, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					cfg.Logger.Info("No references stored")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintf(w, "NAME\tREFERENCE\n")
				for _, rec := range records {
					_, _ = fmt.Fprintf(w, "%s\t%s\n", rec.Name, rec.URI)
				}
				return w.Flush()
			})
		},
	}
}

func newRefsRemoveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove a stored reference",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, false, func(s *store.Store) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				cfg.Logger.Info("Removed reference %s", args[0])
				return nil
			})
		},
	}
}

func newRefsReadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "read <name>",
		Short: "Resolve a stored reference through the 1Password CLI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfg, true, func(s *store.Store) error {
				secret, err := s.Secret(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), secret)
				return nil
			})
		},
	}
}
