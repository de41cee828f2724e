package idempotency

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

const (
	// HeaderKey is the request header carrying the client-supplied key.
	HeaderKey = "Idempotency-Key"
	// HeaderReplayed marks a response served from a stored record.
	HeaderReplayed = "X-Idempotency-Replayed"
)

// Middleware wraps mutation routes with the guard. Requests without an
// Idempotency-Key header pass through untouched. Requests with a key either
// replay the stored response or execute the handler and record any 2xx
// response it produces.
//
// The logical route is the method plus the registered path template
// ("POST /series/:id/items"), so the same key never collides across
// operations and concrete resource ids never leak into record routes.
func Middleware(guard *Guard, opts ...MiddlewareOption) fiber.Handler {
	settings := middlewareSettings{logger: log.NewNop()}

	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderKey)
		if key == "" {
			return c.Next()
		}

		route := c.Method() + " " + c.Route().Path

		record, verdict, err := guard.TryReplay(c.UserContext(), route, key)
		if err != nil {
			// Proceeding without the record could execute the mutation a
			// second time, so the request is refused instead.
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency check unavailable")
		}

		if verdict == VerdictReplay {
			c.Set(HeaderReplayed, "true")

			if record.ContentType != "" {
				c.Set(fiber.HeaderContentType, record.ContentType)
			}

			return c.Status(record.StatusCode).Send(record.Body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return nil
		}

		contentType := string(c.Response().Header.ContentType())

		if err := guard.Record(c.UserContext(), route, key, status, contentType, c.Response().Body()); err != nil {
			// The response was already produced; a failed record write only
			// means a retry may execute again, which at-least-once tolerates.
			settings.logger.Log(c.UserContext(), log.LevelError, "failed to record idempotent response",
				log.String("route", route),
				log.Err(err),
			)
		}

		return nil
	}
}

type middlewareSettings struct {
	logger log.Logger
}

// MiddlewareOption customizes the middleware.
type MiddlewareOption func(*middlewareSettings)

// WithMiddlewareLogger sets the logger used for record-write failures.
func WithMiddlewareLogger(logger log.Logger) MiddlewareOption {
	return func(settings *middlewareSettings) {
		if logger != nil {
			settings.logger = logger
		}
	}
}
