package commands

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/opfield/internal/config"
	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/internal/store"
	"github.com/systmms/opfield/pkg/opfield"
	"github.com/systmms/opfield/tests/testutil"
)

// useMockStore points openStore at a sqlmock connection for one test.
// Tests using it must not run in parallel.
func useMockStore(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := openStore
	openStore = func(_ context.Context, cfg *config.Config, field *opfield.Field) (*store.Store, error) {
		table := cfg.Definition.Database.Table
		if table == "" {
			table = "secret_refs"
		}
		return store.New(db, "postgres", table, field)
	}
	t.Cleanup(func() {
		openStore = orig
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return mock
}

func TestRefsCommand_Init(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS secret_refs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	_, err := executeCommand(t, NewRefsCommand(cfg), "init")
	require.NoError(t, err)
}

func TestRefsCommand_Add(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secret_refs (name, op_uri) VALUES ($1, $2)")).
		WithArgs("db-password", "op://Production/db/password").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	_, err := executeCommand(t, NewRefsCommand(cfg), "add", "db-password", "op://Production/db/password")
	require.NoError(t, err)
}

func TestRefsCommand_UsesConfiguredTableAndWidth(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(
		"CREATE TABLE IF NOT EXISTS app_refs (name VARCHAR(255) PRIMARY KEY, op_uri VARCHAR(512) NOT NULL)",
	)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	path := testutil.NewTestConfig(t).
		WithSettings(map[string]any{
			"OP_CLI_PATH":              "/usr/local/bin/op",
			"OP_SERVICE_ACCOUNT_TOKEN": "ops_test_token_value",
		}).
		WithKeyring(false).
		WithDatabase(map[string]any{
			"driver":     "postgres",
			"dsn":        "postgres://app@localhost/app?sslmode=disable",
			"table":      "app_refs",
			"max_length": 512,
		}).
		Write()
	cfg := &config.Config{Path: path, Logger: testutil.NewTestLogger(t, false).Logger}

	_, err := executeCommand(t, NewRefsCommand(cfg), "init")
	require.NoError(t, err)
}

func TestRefsCommand_AddRejectsInvalid(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig+"vaults: [Production]\n", testutil.NewMockCommandExecutor())

	_, err := executeCommand(t, NewRefsCommand(cfg), "add", "db-password", "op://Staging/db/password")
	assert.Equal(t, opfield.CodeInvalidVault, opfield.ValidationCode(err))
}

func TestRefsCommand_Get(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs WHERE name = $1")).
		WithArgs("db-password").
		WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).AddRow("db-password", "op://Production/db/password"))
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	output, err := executeCommand(t, NewRefsCommand(cfg), "get", "db-password")
	require.NoError(t, err)
	assert.Equal(t, "op://Production/db/password\n", output)
}

func TestRefsCommand_List(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).
			AddRow("api-key", "op://Shared/api/credential").
			AddRow("db-password", "op://Production/db/password"))
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	output, err := executeCommand(t, NewRefsCommand(cfg), "list")
	require.NoError(t, err)
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "api-key")
	assert.Contains(t, output, "op://Shared/api/credential")
}

func TestRefsCommand_RemoveMissing(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM secret_refs WHERE name = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	_, err := executeCommand(t, NewRefsCommand(cfg), "rm", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var userErr dserrors.UserError
	require.True(t, errors.As(err, &userErr))
	assert.Contains(t, userErr.Suggestion, "opfield refs list")
}

func TestRefsCommand_Read(t *testing.T) {
	mock := useMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, op_uri FROM secret_refs WHERE name = $1")).
		WithArgs("db-password").
		WillReturnRows(sqlmock.NewRows([]string{"name", "op_uri"}).AddRow("db-password", "op://Production/db/password"))
	mock.ExpectClose()

	executor := testutil.NewMockCommandExecutor()
	executor.AddSecret("op://Production/db/password", "s3cr3t\n")
	cfg := newTestConfig(t, testConfig, executor)

	output, err := executeCommand(t, NewRefsCommand(cfg), "read", "db-password")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", output)
	assert.Equal(t, 1, executor.CallCount())
}

func TestRefsCommand_NoDatabaseConfigured(t *testing.T) {
	cfg := newTestConfig(t, testConfig, testutil.NewMockCommandExecutor())

	_, err := executeCommand(t, NewRefsCommand(cfg), "list")
	require.Error(t, err)

	var cfgErr dserrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "database", cfgErr.Field)
}
