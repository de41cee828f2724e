//go:build unit

package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level  log.Level
	msg    string
	fields map[string]any
}

func (logger *recordingLogger) Log(_ context.Context, level log.Level, msg string, fields ...log.Field) {
	logger.mu.Lock()
	defer logger.mu.Unlock()

	entry := recordedEntry{level: level, msg: msg, fields: make(map[string]any)}
	for _, field := range fields {
		entry.fields[field.Key] = field.Value
	}

	logger.entries = append(logger.entries, entry)
}

func (logger *recordingLogger) With(_ ...log.Field) log.Logger { return logger }

func (logger *recordingLogger) Enabled(_ log.Level) bool { return true }

func (logger *recordingLogger) Sync(_ context.Context) error { return nil }

func (logger *recordingLogger) all() []recordedEntry {
	logger.mu.Lock()
	defer logger.mu.Unlock()

	return append([]recordedEntry(nil), logger.entries...)
}

func TestRecoverAndLog(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}

	func() {
		defer RecoverAndLog(context.Background(), logger, "outbox", "dispatcher_tick")

		panic("tick exploded")
	}()

	entries := logger.all()
	require.Len(t, entries, 1)
	assert.Equal(t, log.LevelError, entries[0].level)
	assert.Equal(t, "recovered from panic", entries[0].msg)
	assert.Equal(t, "outbox", entries[0].fields["component"])
	assert.Equal(t, "dispatcher_tick", entries[0].fields["name"])
	assert.Equal(t, "tick exploded", entries[0].fields["panic"])
	assert.NotEmpty(t, entries[0].fields["stack"])
}

func TestRecoverAndLogNilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		defer RecoverAndLog(context.Background(), nil, "outbox", "dispatcher_tick")

		panic("contained")
	})
}

func TestRecoverAndLogWithoutPanic(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}

	func() {
		defer RecoverAndLog(context.Background(), logger, "outbox", "dispatcher_tick")
	}()

	assert.Empty(t, logger.all())
}

func TestSafeGoRunsFunction(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})

	SafeGo(log.NewNop(), "worker", func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function did not run")
	}
}

func TestSafeGoContainsPanic(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}

	SafeGo(logger, "worker", func() {
		panic("goroutine exploded")
	})

	assert.Eventually(t, func() bool {
		return len(logger.all()) == 1
	}, time.Second, 5*time.Millisecond)

	entries := logger.all()
	assert.Equal(t, "goroutine exploded", entries[0].fields["panic"])
	assert.Equal(t, "worker", entries[0].fields["name"])
}
