package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/internal/logging"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check opfield settings and 1Password access",
		Long: `Verify that opfield can reach 1Password.

This command checks:
- Configuration file validity
- The service account token (configuration, environment or keyring)
- The op CLI location
- The command timeout
- Authentication, by running 'op whoami'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking opfield configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load config: %w", err)
			}

			resolver, err := cfg.Resolver()
			if err != nil {
				return err
			}

			results := make([]CheckResult, 0, 4)

			token, err := resolver.ServiceAccountToken()
			results = append(results, newCheckResult("token", logging.Secret(token).String(), err))

			path, err := resolver.CLIPath()
			results = append(results, newCheckResult("op cli", path, err))

			timeout, err := resolver.CommandTimeout()
			results = append(results, newCheckResult("timeout", timeout.String(), err))

			// whoami needs every setting above
			auth := CheckResult{Name: "auth", Status: "skipped", Message: "fix the errors above first"}
			if healthy(results) {
				reader, err := cfg.Reader()
				if err != nil {
					return err
				}
				whoami, err := reader.Check(cmd.Context())
				auth = newCheckResult("auth", whoami, err)
			}
			results = append(results, auth)

			displayCheckResults(cmd.OutOrStdout(), results, verbose)

			if !healthy(results) {
				return fmt.Errorf("some checks failed")
			}

			cfg.Logger.Info("All checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failed checks")

	return cmd
}

// CheckResult is the outcome of one doctor check
type CheckResult struct {
	Name    string
	Status  string // ok, error, skipped
	Message string
	Err     error
}

func newCheckResult(name, message string, err error) CheckResult {
	if err != nil {
		return CheckResult{Name: name, Status: "error", Message: err.Error(), Err: dserrors.Explain(err)}
	}
	return CheckResult{Name: name, Status: "ok", Message: message}
}

func healthy(results []CheckResult) bool {
	for _, r := range results {
		if r.Status != "ok" {
			return false
		}
	}
	return true
}

// displayCheckResults shows check results in a formatted table
func displayCheckResults(out io.Writer, results []CheckResult, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, result := range results {
		status := result.Status
		switch result.Status {
		case "ok":
			status = "✓ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "- " + status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", result.Name, status, result.Message)
	}

	_ = w.Flush()

	if !verbose {
		return
	}
	for _, result := range results {
		if result.Err != nil {
			_, _ = fmt.Fprintf(out, "\n%s:\n  %v\n", result.Name, result.Err)
		}
	}
}
