package session

import (
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the storefront session identifier.
const Header = "X-Session-ID"

const localsKey = "session_id"

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Middleware resolves the session id from the request header, minting a new
// UUID when it is missing or malformed, and echoes it in the response.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if !validID.MatchString(id) {
			id = uuid.NewString()
		}
		c.Locals(localsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}

// ID returns the session id resolved by Middleware.
func ID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsKey).(string)
	return id
}
