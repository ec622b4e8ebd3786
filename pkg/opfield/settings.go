package opfield

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/systmms/opfield/internal/secure"
)

// Setting names. The configuration mapping and the environment use the same keys.
const (
	SettingCLIPath             = "OP_CLI_PATH"
	SettingServiceAccountToken = "OP_SERVICE_ACCOUNT_TOKEN"
	SettingCommandTimeout      = "OP_COMMAND_TIMEOUT"
)

const (
	// DefaultCLIName is looked up on PATH when no CLI path is configured.
	DefaultCLIName = "op"

	// DefaultCommandTimeout bounds a single op invocation.
	DefaultCommandTimeout = 5 * time.Second
)

// Settings is the explicit configuration. It takes precedence over the
// environment, which takes precedence over discovered defaults.
type Settings struct {
	CLIPath             string
	ServiceAccountToken string
	CommandTimeout      time.Duration
}

// SettingsFromMap builds Settings from a mapping keyed by the setting names.
// Unknown keys are ignored.
func SettingsFromMap(m map[string]any) (Settings, error) {
	var s Settings
	for key, raw := range m {
		if raw == nil {
			continue
		}
		switch key {
		case SettingCLIPath:
			v, ok := raw.(string)
			if !ok {
				return Settings{}, &ConfigError{Setting: key, Message: fmt.Sprintf("expected a string, got %T", raw)}
			}
			s.CLIPath = v
		case SettingServiceAccountToken:
			v, ok := raw.(string)
			if !ok {
				return Settings{}, &ConfigError{Setting: key, Message: fmt.Sprintf("expected a string, got %T", raw)}
			}
			s.ServiceAccountToken = v
		case SettingCommandTimeout:
			d, err := parseTimeout(raw)
			if err != nil {
				return Settings{}, &ConfigError{Setting: key, Message: err.Error(), Err: err}
			}
			s.CommandTimeout = d
		}
	}
	return s, nil
}

// maxTimeoutSeconds is the largest whole number of seconds a time.Duration holds.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

func floatSeconds(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > float64(maxTimeoutSeconds) {
		return 0, fmt.Errorf("timeout out of range: %v seconds", secs)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// parseTimeout accepts whole or fractional seconds, or a Go duration string.
func parseTimeout(raw any) (time.Duration, error) {
	var d time.Duration
	switch v := raw.(type) {
	case time.Duration:
		d = v
	case int:
		return parseTimeout(int64(v))
	case int64:
		if v > maxTimeoutSeconds || v < -maxTimeoutSeconds {
			return 0, fmt.Errorf("timeout out of range: %d seconds", v)
		}
		d = time.Duration(v) * time.Second
	case float64:
		secs, err := floatSeconds(v)
		if err != nil {
			return 0, err
		}
		d = secs
	case string:
		v = strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			secs, err := floatSeconds(f)
			if err != nil {
				return 0, err
			}
			d = secs
			break
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q", v)
		}
		d = parsed
	default:
		return 0, fmt.Errorf("invalid timeout type %T", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %v", raw)
	}
	return d, nil
}

// Resolver merges Settings, the process environment and discovered defaults.
// Every accessor recomputes its value; nothing is cached.
type Resolver struct {
	settings Settings
	getenv   func(string) string
	lookPath func(string) (string, error)
	keyring  Keyring
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGetenv replaces os.Getenv.
func WithGetenv(fn func(string) string) ResolverOption {
	return func(r *Resolver) { r.getenv = fn }
}

// WithLookPath replaces exec.LookPath for CLI discovery.
func WithLookPath(fn func(string) (string, error)) ResolverOption {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithKeyring enables the keyring as the lowest-precedence token source.
func WithKeyring(k Keyring) ResolverOption {
	return func(r *Resolver) { r.keyring = k }
}

// NewResolver creates a resolver over the given settings.
func NewResolver(settings Settings, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		settings: settings,
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns the explicit configuration.
func (r *Resolver) Settings() Settings {
	return r.settings
}

// CLIPath returns the absolute path of the op executable.
func (r *Resolver) CLIPath() (string, error) {
	path := r.settings.CLIPath
	if path == "" {
		path = r.getenv(SettingCLIPath)
	}
	if path == "" {
		if found, err := r.lookPath(DefaultCLIName); err == nil {
			path = found
		}
	}
	if path == "" {
		return "", &ConfigError{Setting: SettingCLIPath, Err: ErrCLINotFound}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ConfigError{Setting: SettingCLIPath, Message: err.Error(), Err: err}
	}
	return abs, nil
}

// ServiceAccountToken returns the token from settings, the environment or the keyring.
func (r *Resolver) ServiceAccountToken() (string, error) {
	if token := r.settings.ServiceAccountToken; token != "" {
		return token, nil
	}
	if token := r.getenv(SettingServiceAccountToken); token != "" {
		return token, nil
	}
	if r.keyring != nil {
		token, err := r.keyring.Token()
		if err != nil {
			return "", &ConfigError{
				Setting: SettingServiceAccountToken,
				Message: fmt.Sprintf("%s (keyring: %v)", ErrTokenNotSet, err),
				Err:     ErrTokenNotSet,
			}
		}
		if token != "" {
			return token, nil
		}
	}
	return "", &ConfigError{Setting: SettingServiceAccountToken, Err: ErrTokenNotSet}
}

// CommandTimeout returns the timeout for one op invocation.
func (r *Resolver) CommandTimeout() (time.Duration, error) {
	if d := r.settings.CommandTimeout; d != 0 {
		if d < 0 {
			return 0, &ConfigError{Setting: SettingCommandTimeout, Message: fmt.Sprintf("timeout must be positive, got %s", d)}
		}
		return d, nil
	}
	if raw := r.getenv(SettingCommandTimeout); raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return 0, &ConfigError{Setting: SettingCommandTimeout, Message: err.Error(), Err: err}
		}
		return d, nil
	}
	return DefaultCommandTimeout, nil
}

// Snapshot is the effective configuration for a single op invocation.
type Snapshot struct {
	CLIPath string
	Timeout time.Duration
	token   *secure.SecureBuffer
}

// Snapshot resolves every setting. The token is checked first, then the
// CLI path, then the timeout. Callers must Destroy the snapshot.
func (r *Resolver) Snapshot() (*Snapshot, error) {
	token, err := r.ServiceAccountToken()
	if err != nil {
		return nil, err
	}
	path, err := r.CLIPath()
	if err != nil {
		return nil, err
	}
	timeout, err := r.CommandTimeout()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		CLIPath: path,
		Timeout: timeout,
		token:   secure.NewSecureString(token),
	}, nil
}

// Env returns base with OP_SERVICE_ACCOUNT_TOKEN set to the snapshot token.
func (s *Snapshot) Env(base []string) ([]string, error) {
	env := make([]string, 0, len(base)+1)
	prefix := SettingServiceAccountToken + "="
	for _, kv := range base {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	err := s.token.With(func(plain []byte) error {
		env = append(env, prefix+string(plain))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Destroy releases the sealed token.
func (s *Snapshot) Destroy() {
	s.token.Destroy()
}
