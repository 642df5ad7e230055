package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"debug", logger.DebugLevel},
		{"INFO", logger.InfoLevel},
		{"warning", logger.WarnLevel},
		{"warn", logger.WarnLevel},
		{"", logger.WarnLevel},
		{"error", logger.ErrorLevel},
	}

	for _, tt := range tests {
		got, err := logger.ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.CodeOf(err))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "warning"))

	logger.Debug().Msg("hidden")
	logger.Warn().Str("pin", "GPIO4").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"pin":"GPIO4"`)
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "debug"))

	logger.Default().ErrorWithCode(errors.New().New(errors.ErrNotConnected)).Msg("write skipped")

	assert.Contains(t, buf.String(), `"error_code":"metrics_not_connected"`)
	assert.Contains(t, buf.String(), `"message":"write skipped"`)
}
