package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/cmd/opfield/commands"
	"github.com/systmms/opfield/internal/config"
	"github.com/systmms/opfield/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "opfield",
		Short: "1Password secret references for database columns",
		Long: `opfield stores op://vault/item[/section]/field references and resolves
them on demand through the 1Password CLI. Secret values are never stored.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewReadCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewRefsCommand(cfg),
		commands.NewTokenCommand(cfg),
		commands.NewServeCommand(cfg),
	)

	return rootCmd.Execute()
}
