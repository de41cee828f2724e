//go:build unit

package idempotency

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	findErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*Record)}
}

func storeKey(route, key string) string {
	return route + "\x00" + key
}

func (store *memoryStore) Find(_ context.Context, route, key string) (*Record, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findErr != nil {
		return nil, store.findErr
	}

	record, ok := store.records[storeKey(route, key)]
	if !ok {
		return nil, ErrRecordNotFound
	}

	copied := *record

	return &copied, nil
}

func (store *memoryStore) Save(_ context.Context, record *Record) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.saveErr != nil {
		return store.saveErr
	}

	id := storeKey(record.Route, record.Key)
	if _, ok := store.records[id]; ok {
		return ErrDuplicateRecord
	}

	copied := *record
	store.records[id] = &copied

	return nil
}

func (store *memoryStore) SaveTx(ctx context.Context, _ Tx, record *Record) error {
	return store.Save(ctx, record)
}

func TestNewGuardRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := NewGuard(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestTryReplayValidation(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	ctx := context.Background()

	_, _, err = guard.TryReplay(ctx, "  ", "key-1")
	assert.ErrorIs(t, err, ErrRouteRequired)

	_, _, err = guard.TryReplay(ctx, "POST /items", "  ")
	assert.ErrorIs(t, err, ErrKeyRequired)

	_, _, err = guard.TryReplay(ctx, "POST /items", strings.Repeat("k", MaxKeyLength+1))
	assert.ErrorIs(t, err, ErrKeyTooLong)
}

func TestTryReplayMissThenReplay(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	ctx := context.Background()

	record, verdict, err := guard.TryReplay(ctx, "POST /items", "key-1")
	require.NoError(t, err)
	assert.Equal(t, VerdictMiss, verdict)
	assert.Nil(t, record)

	require.NoError(t, guard.Record(ctx, "POST /items", "key-1", 201, "application/json", []byte(`{"itemId":"i-1"}`)))

	record, verdict, err = guard.TryReplay(ctx, "POST /items", "key-1")
	require.NoError(t, err)
	assert.Equal(t, VerdictReplay, verdict)
	require.NotNil(t, record)
	assert.Equal(t, 201, record.StatusCode)
	assert.Equal(t, `{"itemId":"i-1"}`, string(record.Body))

	// Same key on a different route is a distinct record.
	_, verdict, err = guard.TryReplay(ctx, "POST /series", "key-1")
	require.NoError(t, err)
	assert.Equal(t, VerdictMiss, verdict)
}

func TestTryReplayStoreFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.findErr = errors.New("connection reset")

	guard, err := NewGuard(store)
	require.NoError(t, err)

	_, verdict, err := guard.TryReplay(context.Background(), "POST /items", "key-1")
	require.Error(t, err)
	assert.Equal(t, VerdictMiss, verdict)
}

func TestRecordDuplicateIsBenign(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, guard.Record(ctx, "POST /items", "key-1", 200, "application/json", []byte(`{"v":1}`)))
	require.NoError(t, guard.Record(ctx, "POST /items", "key-1", 200, "application/json", []byte(`{"v":2}`)))

	record, verdict, err := guard.TryReplay(ctx, "POST /items", "key-1")
	require.NoError(t, err)
	assert.Equal(t, VerdictReplay, verdict)
	assert.Equal(t, `{"v":1}`, string(record.Body))
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	err = guard.Record(context.Background(), "POST /items", "key-1", 42, "", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
