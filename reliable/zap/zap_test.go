//go:build unit

package zap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)

	return Wrap(zap.New(core)), observed
}

func TestLogEmitsAtMappedLevels(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.DebugLevel)
	ctx := context.Background()

	logger.Log(ctx, logpkg.LevelDebug, "debug line")
	logger.Log(ctx, logpkg.LevelInfo, "info line")
	logger.Log(ctx, logpkg.LevelWarn, "warn line")
	logger.Log(ctx, logpkg.LevelError, "error line")

	entries := observed.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestLogCarriesFields(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Log(context.Background(), logpkg.LevelInfo, "session rotated",
		logpkg.String("session_id", "s-1"),
		logpkg.Int("attempts", 3),
		logpkg.Err(errors.New("boom")),
	)

	entries := observed.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "s-1", fields["session_id"])
	assert.EqualValues(t, 3, fields["attempts"])
	assert.Equal(t, "boom", fields["error"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	t.Parallel()

	logger, observed := newObservedLogger(zapcore.InfoLevel)

	child := logger.With(logpkg.String("component", "outbox"))
	child.Log(context.Background(), logpkg.LevelInfo, "tick")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "outbox", entries[0].ContextMap()["component"])
}

func TestEnabledRespectsLevel(t *testing.T) {
	t.Parallel()

	logger, _ := newObservedLogger(zapcore.WarnLevel)

	assert.True(t, logger.Enabled(logpkg.LevelError))
	assert.True(t, logger.Enabled(logpkg.LevelWarn))
	assert.False(t, logger.Enabled(logpkg.LevelInfo))
	assert.False(t, logger.Enabled(logpkg.LevelDebug))
}

func TestNewBuildsAtConfiguredLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Level: logpkg.LevelWarn})
	require.NoError(t, err)

	assert.False(t, logger.Enabled(logpkg.LevelInfo))

	logger.SetLevel(logpkg.LevelDebug)
	assert.True(t, logger.Enabled(logpkg.LevelDebug))
}

func TestWrapNilIsSafe(t *testing.T) {
	t.Parallel()

	logger := Wrap(nil)

	logger.Log(context.Background(), logpkg.LevelInfo, "ignored")
	assert.NoError(t, logger.Sync(context.Background()))
}
