package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretRedaction(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "secret is redacted", input: "my-secret-password"},
		{name: "empty secret is still redacted", input: ""},
		{name: "complex secret is redacted", input: "password123!@#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "[REDACTED]", Secret(tt.input).String())
			assert.Equal(t, "[REDACTED]", Secret(tt.input).GoString())
		})
	}
}

func TestLoggerWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("read %s", "op://vault/item/field")
	logger.Warn("careful")
	logger.Error("failed: %v", "boom")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "✓ read op://vault/item/field\n")
	assert.Contains(t, out, "⚠ careful\n")
	assert.Contains(t, out, "✗ failed: boom\n")
	assert.NotContains(t, out, "hidden")
}

func TestLoggerDebugMode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	assert.True(t, logger.IsDebug())
	logger.Debug("token %s", Secret("ops_abcdef"))

	assert.Equal(t, "[DEBUG] token [REDACTED]\n", buf.String())
}

func TestLoggerColor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, false)

	logger.Info("ok")

	assert.Equal(t, "\033[32m✓\033[0m ok\n", buf.String())
}

func TestNilLogger(t *testing.T) {
	var logger *Logger

	assert.False(t, logger.IsDebug())
	assert.NotPanics(t, func() {
		logger.Info("info")
		logger.Debug("debug")
	})
}

func TestRedactEnv(t *testing.T) {
	env := []string{"PATH=/usr/bin", "OP_SERVICE_ACCOUNT_TOKEN=ops_abc", "HOME=/root"}

	got := RedactEnv(env, "OP_SERVICE_ACCOUNT_TOKEN")

	assert.Equal(t, []string{"PATH=/usr/bin", "OP_SERVICE_ACCOUNT_TOKEN=[REDACTED]", "HOME=/root"}, got)
	assert.Equal(t, "OP_SERVICE_ACCOUNT_TOKEN=ops_abc", env[1])
}
