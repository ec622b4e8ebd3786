package opfield

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/systmms/opfield/internal/logging"
	"github.com/systmms/opfield/internal/metrics"
	"github.com/systmms/opfield/pkg/exec"
)

// SecretReader resolves a secret reference to its plaintext value.
type SecretReader interface {
	Read(ctx context.Context, uri string) (string, error)
}

// Reader runs "op read" for each request. Settings are resolved on every
// call and results are never cached.
type Reader struct {
	resolver *Resolver
	executor exec.CommandExecutor
	logger   *logging.Logger
	metrics  *metrics.ReadMetrics
	environ  func() []string
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithExecutor replaces the process executor, mainly for tests.
func WithExecutor(e exec.CommandExecutor) ReaderOption {
	return func(r *Reader) { r.executor = e }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logging.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// WithEnviron replaces os.Environ as the base child environment.
func WithEnviron(fn func() []string) ReaderOption {
	return func(r *Reader) { r.environ = fn }
}

// NewReader creates a reader. A nil resolver resolves from the environment only.
func NewReader(resolver *Resolver, opts ...ReaderOption) *Reader {
	if resolver == nil {
		resolver = NewResolver(Settings{})
	}
	r := &Reader{
		resolver: resolver,
		executor: exec.DefaultExecutor(),
		metrics:  metrics.NewReadMetrics(),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read resolves uri with "<cli> read <uri>". A zero exit yields the trimmed
// standard output. A non-zero exit yields an *ExecutionError carrying
// standard error, and hitting the deadline yields a *TimeoutError.
func (r *Reader) Read(ctx context.Context, uri string) (string, error) {
	ref, err := ParseURI(uri)
	if err != nil {
		r.metrics.RecordRead("", metrics.StatusInvalid, -1)
		return "", err
	}

	stdout, elapsed, err := r.run(ctx, "read", uri)
	if err != nil {
		r.metrics.RecordRead(ref.Vault, readStatus(err), elapsed)
		return "", err
	}

	r.metrics.RecordRead(ref.Vault, metrics.StatusSuccess, elapsed)
	return strings.TrimSpace(string(stdout)), nil
}

// Check runs "<cli> whoami" to confirm the token is accepted.
func (r *Reader) Check(ctx context.Context) (string, error) {
	stdout, _, err := r.run(ctx, "whoami")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// run executes one op subcommand; elapsed is -1 when nothing was started.
func (r *Reader) run(ctx context.Context, args ...string) ([]byte, float64, error) {
	snap, err := r.resolver.Snapshot()
	if err != nil {
		return nil, -1, err
	}
	defer snap.Destroy()

	env, err := snap.Env(r.environ())
	if err != nil {
		return nil, -1, err
	}
	cmd := exec.Command{Path: snap.CLIPath, Args: args, Env: env}

	parent := ctx
	ctx, cancel := context.WithTimeout(parent, snap.Timeout)
	defer cancel()

	if r.logger.IsDebug() {
		r.logger.Debug("Running %s (timeout %s, env %v)", cmd, snap.Timeout,
			logging.RedactEnv(opEnv(env), SettingServiceAccountToken))
	}
	start := time.Now()
	stdout, stderr, err := r.executor.Execute(ctx, cmd)
	elapsed := time.Since(start).Seconds()
	if err == nil {
		return stdout, elapsed, nil
	}

	// A deadline or cancellation owned by the caller is returned as is;
	// only our own timeout becomes a *TimeoutError.
	if parentErr := parent.Err(); parentErr != nil {
		return nil, elapsed, parentErr
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, elapsed, &TimeoutError{Command: cmd.String(), Timeout: snap.Timeout}
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	r.logger.Debug("%s failed: %s", cmd, msg)
	return nil, elapsed, &ExecutionError{
		Command:  cmd.String(),
		ExitCode: exec.ExitCode(err),
		Stderr:   msg,
		Err:      err,
	}
}

// opEnv keeps the OP_* entries of a child environment for debug output.
func opEnv(env []string) []string {
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, "OP_") {
			out = append(out, kv)
		}
	}
	return out
}

func readStatus(err error) string {
	var cfgErr *ConfigError
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusTimeout
	case errors.As(err, &cfgErr):
		return metrics.StatusConfigError
	default:
		return metrics.StatusError
	}
}
