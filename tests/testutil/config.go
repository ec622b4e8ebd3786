// Package testutil provides test utilities and helpers for opfield tests.
//
// It contains a mock op CLI executor, an opfield.yaml builder and a
// capturing logger.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfigBuilder provides a fluent API for building opfield.yaml files.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithSettings(map[string]any{"OP_CLI_PATH": "/usr/local/bin/op"}).
//	    WithVaults("Production").
//	    WithKeyring(false).
//	    Write()
type TestConfigBuilder struct {
	doc     map[string]any
	tempDir string
	t       *testing.T
}

// NewTestConfig creates a builder starting from "version: 1".
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		doc:     map[string]any{"version": 1},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithSettings merges entries into the settings block.
func (b *TestConfigBuilder) WithSettings(settings map[string]any) *TestConfigBuilder {
	existing, _ := b.doc["settings"].(map[string]any)
	if existing == nil {
		existing = make(map[string]any)
	}
	for k, v := range settings {
		existing[k] = v
	}
	b.doc["settings"] = existing
	return b
}

// WithVaults sets the vault allow-list.
func (b *TestConfigBuilder) WithVaults(vaults ...string) *TestConfigBuilder {
	b.doc["vaults"] = vaults
	return b
}

// WithKeyring enables or disables the OS keyring token source.
func (b *TestConfigBuilder) WithKeyring(enabled bool) *TestConfigBuilder {
	b.doc["keyring"] = enabled
	return b
}

// WithDatabase sets the database block.
func (b *TestConfigBuilder) WithDatabase(db map[string]any) *TestConfigBuilder {
	b.doc["database"] = db
	return b
}

// WithMetrics sets the metrics block.
func (b *TestConfigBuilder) WithMetrics(addr, path string) *TestConfigBuilder {
	b.doc["metrics"] = map[string]any{"addr": addr, "path": path}
	return b
}

// Write marshals the document to opfield.yaml in a temp dir and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.doc)
	if err != nil {
		b.t.Fatalf("Failed to marshal config: %v", err)
	}
	return WriteTestConfig(b.t, string(data))
}

// WriteTestConfig writes raw YAML to opfield.yaml in a temp dir.
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "opfield.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
