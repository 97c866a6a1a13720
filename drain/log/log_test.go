//go:build unit

package log_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LerianStudio/lib-drain/drain/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    log.Level
		expected string
	}{
		{log.LevelDebug, "debug"},
		{log.LevelInfo, "info"},
		{log.LevelWarn, "warn"},
		{log.LevelError, "error"},
		{log.Level(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
		wantErr  bool
	}{
		{input: "debug", expected: log.LevelDebug},
		{input: "INFO", expected: log.LevelInfo},
		{input: "warn", expected: log.LevelWarn},
		{input: "warning", expected: log.LevelWarn},
		{input: "Error", expected: log.LevelError},
		{input: "trace", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := log.ParseLevel(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, log.Field{Key: "s", Value: "v"}, log.String("s", "v"))
	assert.Equal(t, log.Field{Key: "i", Value: 7}, log.Int("i", 7))
	assert.Equal(t, log.Field{Key: "u", Value: uint64(7)}, log.Uint64("u", 7))
	assert.Equal(t, log.Field{Key: "b", Value: true}, log.Bool("b", true))
	assert.Equal(t, log.Field{Key: "d", Value: time.Second}, log.Duration("d", time.Second))
	assert.Equal(t, log.Field{Key: "error", Value: err}, log.Err(err))
	assert.Equal(t, log.Field{Key: "a", Value: 1.5}, log.Any("a", 1.5))
}

func TestNopLogger(t *testing.T) {
	logger := log.NewNop()

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), log.LevelInfo, "dropped", log.String("k", "v"))
	})

	assert.Same(t, logger, logger.With(log.String("k", "v")))
	assert.Same(t, logger, logger.WithGroup("group"))
	assert.False(t, logger.Enabled(log.LevelError))
	assert.NoError(t, logger.Sync(context.Background()))
}
