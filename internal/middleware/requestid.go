package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
)

// RequestID ensures each request carries an identifier for tracing and logging.
// A caller-supplied value is kept.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := utils.CopyString(c.Get(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDLocal, reqID)
		return c.Next()
	}
}

// GetRequestID returns the request identifier set by RequestID.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
