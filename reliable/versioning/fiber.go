package versioning

import (
	"github.com/gofiber/fiber/v2"
)

// SetETag writes the resource's current validator on a response. Call it on
// every read and on every accepted mutation so clients always hold a fresh
// precondition for their next write.
func SetETag(c *fiber.Ctx, version int64) {
	c.Set(fiber.HeaderETag, Validator(version))
}

// CheckRequest evaluates the request's If-Match header against the resource's
// current version.
func CheckRequest(c *fiber.Ctx, currentVersion int64) Outcome {
	return Check(c.Get(fiber.HeaderIfMatch), Validator(currentVersion))
}

// RespondPreconditionFailed renders the 412 rejection. The current validator
// rides along so the client can refetch state and retry with a fresh
// precondition.
func RespondPreconditionFailed(c *fiber.Ctx, currentVersion int64) error {
	SetETag(c, currentVersion)

	return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{
		"code":    "stale_version",
		"message": "The resource changed since it was last read. Refetch it and retry with the current version.",
	})
}
