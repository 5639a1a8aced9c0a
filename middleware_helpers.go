package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

// RequestLogger logs one line per request. Mount it after requestid.New.
func RequestLogger(logger Logger) fiber.Handler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = ErrorStatus(err)
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		logger.Info("%s %s %d %s request_id=%s ip=%s",
			c.Method(), c.OriginalURL(), status, time.Since(start).Round(time.Microsecond), requestID(c), c.IP())
		return err
	}
}
