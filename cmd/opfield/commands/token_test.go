package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/opfield/pkg/opfield"
	"github.com/systmms/opfield/tests/testutil"
	"github.com/zalando/go-keyring"
)

func TestTokenCommand_SetAndClear(t *testing.T) {
	keyring.MockInit()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	cmd := NewTokenCommand(cfg)
	cmd.SetIn(strings.NewReader("  ops_from_stdin  \n"))
	_, err := executeCommand(t, cmd, "set")
	require.NoError(t, err)

	stored, err := keyring.Get(opfield.KeyringService, opfield.KeyringAccount)
	require.NoError(t, err)
	assert.Equal(t, "ops_from_stdin", stored)

	_, err = executeCommand(t, NewTokenCommand(cfg), "clear")
	require.NoError(t, err)

	_, err = keyring.Get(opfield.KeyringService, opfield.KeyringAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	// clearing twice is fine
	_, err = executeCommand(t, NewTokenCommand(cfg), "clear")
	assert.NoError(t, err)
}

func TestTokenCommand_SetRequiresInput(t *testing.T) {
	keyring.MockInit()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	cmd := NewTokenCommand(cfg)
	cmd.SetIn(strings.NewReader("\n"))
	_, err := executeCommand(t, cmd, "set")
	assert.ErrorContains(t, err, "No token provided on stdin")
}

func TestTokenCommand_KeyringTokenIsUsedForReads(t *testing.T) {
	keyring.MockInit()
	t.Setenv(opfield.SettingServiceAccountToken, "")
	require.NoError(t, opfield.NewSystemKeyring().SetToken("ops_from_keyring"))

	mock := testutil.NewMockCommandExecutor()
	mock.AddSecret("op://Production/db/password", "s3cr3t")
	cfg := newTestConfig(t, "settings:\n  OP_CLI_PATH: /usr/local/bin/op\n", mock)

	output, err := executeCommand(t, NewReadCommand(cfg), "op://Production/db/password")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", output)

	token, _ := mock.LastCall().Env(opfield.SettingServiceAccountToken)
	assert.Equal(t, "ops_from_keyring", token)
}
