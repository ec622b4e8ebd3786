// Package opfield stores 1Password secret references and resolves them on demand.
//
// A reference has the form op://<vault>/<item>[/<section>]/<field>. Only the
// reference is persisted (see URI, which implements sql.Scanner and
// driver.Valuer); the secret itself is read through the 1Password CLI each
// time Field.Secret or Reader.Read is called:
//
//	field := opfield.New("api_key", opfield.WithVaults("Production"))
//	if err := field.Clean(row.APIKey); err != nil {
//	    return err
//	}
//	secret, err := field.Secret(ctx, row.APIKey)
//
// # Settings
//
// The op executable path, the service account token and the command timeout
// are resolved on every read, first from Settings, then from the
// OP_CLI_PATH, OP_SERVICE_ACCOUNT_TOKEN and OP_COMMAND_TIMEOUT environment
// variables, and finally from defaults: "op" on PATH, the OS keyring when
// enabled with WithKeyring, and a five second timeout.
//
// The token is held in a memguard enclave while a read is in flight. Building
// the child environment mlocks a few pages; memguard panics if that fails,
// so on Linux the process needs a non-zero RLIMIT_MEMLOCK (ulimit -l).
//
// # Errors
//
// Failures are reported as *ValidationError, *ConfigError, *ExecutionError or
// *TimeoutError. Writes to the resolved secret return ErrReadOnly. Nothing is
// retried.
package opfield
