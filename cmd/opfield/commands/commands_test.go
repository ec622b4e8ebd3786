package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/systmms/opfield/internal/config"
	"github.com/systmms/opfield/tests/testutil"
)

const testConfig = `
settings:
  OP_CLI_PATH: /usr/local/bin/op
  OP_SERVICE_ACCOUNT_TOKEN: ops_test_token_value
  OP_COMMAND_TIMEOUT: 5
keyring: false
`

func newTestConfig(t *testing.T, body string, executor *testutil.MockCommandExecutor) *config.Config {
	t.Helper()

	return &config.Config{
		Path:     testutil.WriteTestConfig(t, body),
		Logger:   testutil.NewTestLogger(t, false).Logger,
		Executor: executor,
	}
}

func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return out.String(), err
}
