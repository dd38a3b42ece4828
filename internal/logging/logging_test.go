package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notelog/internal/config"
	"notelog/internal/logging"
)

func TestNew_DebugWritesToStderr(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := logging.New(true, config.LoggingSettings{}, &stderr)
	defer closer.Close()

	logger.Debug("fetching log", "path", "/notes_log.txt")

	assert.Contains(t, stderr.String(), "fetching log")
	assert.Contains(t, stderr.String(), "path=/notes_log.txt")
}

func TestNew_QuietByDefault(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := logging.New(false, config.LoggingSettings{}, &stderr)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("hidden too")

	assert.Empty(t, stderr.String())
}

func TestNew_RedactsCredentials(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := logging.New(true, config.LoggingSettings{}, &stderr)
	defer closer.Close()

	logger.Debug("stored", "access_token", "sl.ABCDEF", "code", "xyz", "path", "/n.txt")

	out := stderr.String()
	assert.NotContains(t, out, "sl.ABCDEF")
	assert.NotContains(t, out, "xyz")
	assert.Contains(t, out, "access_token="+logging.Redacted)
	assert.Contains(t, out, "path=/n.txt")
}

func TestNew_WritesRotatingFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "notelog.log")
	var stderr bytes.Buffer
	logger, closer := logging.New(false, config.LoggingSettings{File: logFile, MaxSizeMB: 1}, &stderr)

	logger.Info("upload complete", "bytes", 42)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"upload complete"`)
	assert.Contains(t, string(data), `"bytes":42`)
	// Info is below the stderr threshold.
	assert.Empty(t, stderr.String())
}
