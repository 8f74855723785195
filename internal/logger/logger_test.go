package logger_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want logger.LogLevel
	}{
		{"debug", logger.DebugLevel},
		{"INFO", logger.InfoLevel},
		{"warning", logger.WarnLevel},
		{"warn", logger.WarnLevel},
		{" error ", logger.ErrorLevel},
	}

	for _, tt := range tests {
		got, err := logger.ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestParseLevelInvalid(t *testing.T) {
	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLogLevel(logger.InfoLevel)
	t.Cleanup(func() { logger.SetLogLevel(logger.WarnLevel) })

	logger.Info().Str("device", "UM34C").Msg("Connected")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "Connected")
	assert.Contains(t, out, "device=UM34C")
	assert.NotContains(t, out, "hidden")
}

func TestFailureTagsCode(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	inner := errors.New().WithMessage(errors.ErrTimeout, "no answer")
	logger.Failure(inner).Msg("Scan failed")
	logger.Get().Failure(fmt.Errorf("plain")).Msg("Other")

	out := buf.String()
	assert.Contains(t, out, "error_code=operation_timeout")
	assert.Contains(t, out, "no answer")
	assert.Contains(t, out, "Other")
	assert.Equal(t, 1, strings.Count(out, "error_code="))
}
