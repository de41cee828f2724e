//go:build unit

package idempotency

import (
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, guard *Guard, handlerCalls *atomic.Int64) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Post("/series/:seriesID/items", Middleware(guard), func(c *fiber.Ctx) error {
		handlerCalls.Add(1)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"itemId": "i-1"})
	})

	return app
}

func TestMiddlewarePassThroughWithoutKey(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	var calls atomic.Int64
	app := newTestApp(t, guard, &calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/series/s-1/items", nil)

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, res.StatusCode)
		assert.Empty(t, res.Header.Get(HeaderReplayed))
	}

	// No key means no deduplication.
	assert.Equal(t, int64(2), calls.Load())
}

func TestMiddlewareRecordsAndReplays(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	guard, err := NewGuard(store)
	require.NoError(t, err)

	var calls atomic.Int64
	app := newTestApp(t, guard, &calls)

	first := httptest.NewRequest(fiber.MethodPost, "/series/s-1/items", nil)
	first.Header.Set(HeaderKey, "retry-abc")

	res, err := app.Test(first)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Empty(t, res.Header.Get(HeaderReplayed))

	firstBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	second := httptest.NewRequest(fiber.MethodPost, "/series/s-1/items", nil)
	second.Header.Set(HeaderKey, "retry-abc")

	res, err = app.Test(second)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, "true", res.Header.Get(HeaderReplayed))

	secondBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, string(firstBody), string(secondBody))

	// The handler ran exactly once; the replay came from the store.
	assert.Equal(t, int64(1), calls.Load())

	// The stored route uses the path template, not the concrete id.
	_, ok := store.records[storeKey("POST /series/:seriesID/items", "retry-abc")]
	assert.True(t, ok)
}

func TestMiddlewareDoesNotRecordFailures(t *testing.T) {
	t.Parallel()

	guard, err := NewGuard(newMemoryStore())
	require.NoError(t, err)

	var calls atomic.Int64

	app := fiber.New()
	app.Post("/items", Middleware(guard), func(c *fiber.Ctx) error {
		calls.Add(1)

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "bad item"})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/items", nil)
		req.Header.Set(HeaderKey, "retry-abc")

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, res.StatusCode)
		assert.Empty(t, res.Header.Get(HeaderReplayed))
	}

	// Non-2xx responses are not recorded, so the retry executes again.
	assert.Equal(t, int64(2), calls.Load())
}

func TestMiddlewareFailsClosedOnStoreError(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.findErr = assert.AnError

	guard, err := NewGuard(store)
	require.NoError(t, err)

	var calls atomic.Int64
	app := newTestApp(t, guard, &calls)

	req := httptest.NewRequest(fiber.MethodPost, "/series/s-1/items", nil)
	req.Header.Set(HeaderKey, "retry-abc")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, int64(0), calls.Load())
}
