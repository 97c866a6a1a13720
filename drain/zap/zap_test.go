//go:build unit

package zap

import (
	"context"
	"errors"
	"testing"
	"time"

	logpkg "github.com/LerianStudio/lib-drain/drain/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)

	return &Logger{logger: zap.New(core)}, logs
}

func TestLogDispatchesToZapLevels(t *testing.T) {
	tests := []struct {
		level    logpkg.Level
		expected zapcore.Level
	}{
		{logpkg.LevelDebug, zapcore.DebugLevel},
		{logpkg.LevelInfo, zapcore.InfoLevel},
		{logpkg.LevelWarn, zapcore.WarnLevel},
		{logpkg.LevelError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			logger, logs := newObservedLogger(zapcore.DebugLevel)

			logger.Log(context.Background(), tt.level, "msg")

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.expected, entries[0].Level)
		})
	}
}

func TestLogConvertsTypedFields(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.DebugLevel)

	bang := errors.New("bang")

	logger.Log(context.Background(), logpkg.LevelInfo, "msg",
		logpkg.String("s", "v"),
		logpkg.Int("i", 7),
		logpkg.Uint64("u", 9),
		logpkg.Bool("b", true),
		logpkg.Duration("d", time.Second),
		logpkg.Err(bang),
	)

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "v", fields["s"])
	assert.Equal(t, int64(7), fields["i"])
	assert.Equal(t, uint64(9), fields["u"])
	assert.Equal(t, true, fields["b"])
	assert.Equal(t, time.Second, fields["d"])
	assert.Equal(t, "bang", fields["error"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.DebugLevel)

	child := logger.With(logpkg.String("component", "drain"))
	child.Log(context.Background(), logpkg.LevelInfo, "msg")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "drain", entries[0].ContextMap()["component"])
}

func TestEnabledRespectsCoreLevel(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.WarnLevel)

	assert.True(t, logger.Enabled(logpkg.LevelError))
	assert.True(t, logger.Enabled(logpkg.LevelWarn))
	assert.False(t, logger.Enabled(logpkg.LevelInfo))
	assert.False(t, logger.Enabled(logpkg.LevelDebug))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), logpkg.LevelInfo, "msg")
	})
	assert.NoError(t, logger.Sync(context.Background()))
}

func TestSyncRespectsCancelledContext(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.DebugLevel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, logger.Sync(ctx), context.Canceled)
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing library name", cfg: Config{Environment: EnvironmentProduction}},
		{name: "invalid environment", cfg: Config{Environment: "qa", OTelLibraryName: "lib-drain"}},
		{name: "invalid level", cfg: Config{Environment: EnvironmentLocal, OTelLibraryName: "lib-drain", Level: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestNewBuildsLoggerWithResolvedLevel(t *testing.T) {
	logger, level, err := New(Config{
		Environment:     EnvironmentLocal,
		OTelLibraryName: "lib-drain",
	})

	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, zapcore.DebugLevel, level.Level())
	assert.True(t, logger.Enabled(logpkg.LevelDebug))
}
