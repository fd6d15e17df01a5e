package reporting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldChildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
		Output: &buf,
	})

	child := logger.WithField("run_id", "20240601T120000Z")
	child.Info("Ingest starting", "version", "1.2.3")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "20240601T120000Z", entry["run_id"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "Ingest starting", entry["message"])

	// The parent is unchanged.
	buf.Reset()
	logger.Info("plain")
	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &plain))
	assert.NotContains(t, plain, "run_id")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelWarn,
		Format: LogFormatJSON,
		Output: &buf,
	})

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerOddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
		Output: &buf,
	})

	logger.Info("lopsided", "key_without_value")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "odd number of fields", entry["error"])
}
