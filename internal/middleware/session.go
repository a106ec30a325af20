package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/doodleleagues/whitelist_checker/internal/session"
)

const (
	// SessionHeader carries the visitor session between requests.
	SessionHeader = "X-Session-ID"
	sessionLocal  = "session_id"
)

// Session resolves the visitor session from the X-Session-ID header, issuing
// a new one when it is missing or malformed. The ID is echoed back on the
// response so clients can keep it. The ID outlives the request as a session
// key, so it is copied out of Fiber's reusable header buffer.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(SessionHeader))
		if !session.ValidID(id) {
			id = session.NewID()
		}
		c.Set(SessionHeader, id)
		c.Locals(sessionLocal, id)
		return c.Next()
	}
}

// GetSessionID returns the session identifier set by Session.
func GetSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}
