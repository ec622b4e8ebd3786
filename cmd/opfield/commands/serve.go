package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	"github.com/systmms/opfield/internal/metrics"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var (
		addr string
		path string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics and a health endpoint",
		Long: `Expose read and validation metrics for Prometheus, plus /health which
runs 'op whoami' with the resolved settings.

Examples:
  opfield serve
  opfield serve --addr :9191 --path /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			serverCfg := serverConfig(cfg.Definition.Metrics, addr, path)
			reader, err := cfg.Reader()
			if err != nil {
				return err
			}

			metrics.InitMetrics()
			server := metrics.NewServer(serverCfg, func(ctx context.Context) error {
				_, err := reader.Check(ctx)
				return err
			}, cfg.Logger)

			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			cfg.Logger.Info("Serving metrics on %s%s", server.Addr(), serverCfg.Path)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from opfield.yaml or :9090)")
	cmd.Flags().StringVar(&path, "path", "", "Metrics path (default from opfield.yaml or /metrics)")

	return cmd
}

// serverConfig layers flags over opfield.yaml over the defaults.
func serverConfig(m config.MetricsConfig, addr, path string) metrics.ServerConfig {
	c := metrics.DefaultServerConfig()
	if m.Addr != "" {
		c.Addr = m.Addr
	}
	if m.Path != "" {
		c.Path = m.Path
	}
	if addr != "" {
		c.Addr = addr
	}
	if path != "" {
		c.Path = path
	}
	return c
}
