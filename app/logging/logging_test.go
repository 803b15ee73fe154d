package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", FormatJSON, &buf)
	require.NoError(t, err)

	logger.Info().Str("request_id", "r-1").Msg("request completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pos-api", entry["service"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.Equal(t, "request completed", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", FormatJSON, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("INFO", FormatConsole, &buf)
	require.NoError(t, err)

	logger.Info().Msg("listening")

	assert.Contains(t, buf.String(), "listening")
	assert.NotContains(t, buf.String(), "{")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("loud", FormatJSON, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
