package logging

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdash/internal/config"
)

func TestNewDefaultsToJSON(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNewTextFormat(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "debug", Format: "text"})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewRejectsBadOutput(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "info", Output: "syslog"})
	assert.Error(t, err)
}

func TestNewFileOutputCreatesDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "fxdash.log")
	logger, err := New(config.LoggingConfig{
		Level:  "info",
		Output: "file",
		File:   file,
	})
	require.NoError(t, err)

	logger.Info("rotation smoke test")
	assert.DirExists(t, filepath.Dir(file))
}
