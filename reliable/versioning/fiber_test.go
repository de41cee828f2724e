//go:build unit

package versioning

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberHelpers(t *testing.T) {
	t.Parallel()

	const currentVersion = int64(3)

	app := fiber.New()
	app.Patch("/series/:seriesID", func(c *fiber.Ctx) error {
		if CheckRequest(c, currentVersion) == OutcomePreconditionFailed {
			return RespondPreconditionFailed(c, currentVersion)
		}

		SetETag(c, currentVersion+1)

		return c.JSON(fiber.Map{"seriesId": c.Params("seriesID")})
	})

	t.Run("no precondition proceeds", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(fiber.MethodPatch, "/series/s-1", nil)

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.Equal(t, `W/"4"`, res.Header.Get(fiber.HeaderETag))
	})

	t.Run("fresh precondition proceeds", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(fiber.MethodPatch, "/series/s-1", nil)
		req.Header.Set(fiber.HeaderIfMatch, `W/"3"`)

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("stale precondition rejected with current validator", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(fiber.MethodPatch, "/series/s-1", nil)
		req.Header.Set(fiber.HeaderIfMatch, `W/"2"`)

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusPreconditionFailed, res.StatusCode)
		assert.Equal(t, `W/"3"`, res.Header.Get(fiber.HeaderETag))
	})
}
