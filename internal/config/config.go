package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/opfield/internal/errors"
	"github.com/systmms/opfield/internal/logging"
	"github.com/systmms/opfield/pkg/exec"
	"github.com/systmms/opfield/pkg/opfield"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "opfield.yaml"

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition

	// Executor runs the op CLI; nil uses the real process executor.
	Executor exec.CommandExecutor
}

// Definition represents the opfield.yaml structure
type Definition struct {
	Version  int            `yaml:"version"`
	Settings map[string]any `yaml:"settings,omitempty"`
	Vaults   []string       `yaml:"vaults,omitempty"`
	Keyring  *bool          `yaml:"keyring,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
}

// DatabaseConfig points at the table of stored secret references
type DatabaseConfig struct {
	Driver    string `yaml:"driver,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
	Table     string `yaml:"table,omitempty"`
	MaxLength int    `yaml:"max_length,omitempty"`
}

// MetricsConfig configures 'opfield serve'
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// Load reads, schema-checks and parses the config file. A missing file
// yields an empty definition: the environment and defaults still apply.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Logger.Debug("No config file at %s, using environment and defaults", c.Path)
			c.Definition = &Definition{Version: 1}
			return nil
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// Parse decodes and validates an opfield.yaml document
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			Err:        err,
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{Message: err.Error(), Err: err}
	}
	if def.Version == 0 {
		def.Version = 1
	}
	if _, err := opfield.SettingsFromMap(def.Settings); err != nil {
		return nil, dserrors.Explain(err)
	}
	return &def, nil
}

func validateSchema(doc map[string]any) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var messages []string
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return dserrors.ConfigError{
		Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
		Suggestion: "Check key names and value types in opfield.yaml",
	}
}

func (c *Config) definition() *Definition {
	if c.Definition == nil {
		return &Definition{Version: 1}
	}
	return c.Definition
}

// KeyringEnabled reports whether the OS keyring is a token source (default true)
func (c *Config) KeyringEnabled() bool {
	k := c.definition().Keyring
	return k == nil || *k
}

// Resolver builds the settings resolver for this configuration
func (c *Config) Resolver() (*opfield.Resolver, error) {
	settings, err := opfield.SettingsFromMap(c.definition().Settings)
	if err != nil {
		return nil, dserrors.Explain(err)
	}
	var opts []opfield.ResolverOption
	if c.KeyringEnabled() {
		opts = append(opts, opfield.WithKeyring(opfield.NewSystemKeyring()))
	}
	return opfield.NewResolver(settings, opts...), nil
}

// Field builds the secret-reference field definition for this configuration
func (c *Config) Field(name string, opts ...opfield.Option) *opfield.Field {
	def := c.definition()
	var base []opfield.Option
	if len(def.Vaults) > 0 {
		base = append(base, opfield.WithVaults(def.Vaults...))
	}
	if def.Database.MaxLength > 0 {
		base = append(base, opfield.WithMaxLength(def.Database.MaxLength))
	}
	return opfield.New(name, append(base, opts...)...)
}

// Reader builds the op CLI reader for this configuration
func (c *Config) Reader() (*opfield.Reader, error) {
	resolver, err := c.Resolver()
	if err != nil {
		return nil, err
	}
	opts := []opfield.ReaderOption{opfield.WithLogger(c.Logger)}
	if c.Executor != nil {
		opts = append(opts, opfield.WithExecutor(c.Executor))
	}
	return opfield.NewReader(resolver, opts...), nil
}
