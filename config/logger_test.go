package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesFileAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.log")
	logger, closeFn, err := LogConfig{Level: "warn", File: path}.NewLogger()
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "user", "alice")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=shown user=alice")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, _, err := LogConfig{Level: "chatty"}.NewLogger()
	assert.ErrorContains(t, err, "log level")
}
