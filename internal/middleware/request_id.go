package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	CtxRequestID    = "request_id"
	headerRequestID = "X-Request-ID"
)

// RequestIDMiddleware tags every request with a correlation id, honoring one
// supplied by the caller.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals(CtxRequestID, reqID)
		c.Set(headerRequestID, reqID)
		return c.Next()
	}
}
