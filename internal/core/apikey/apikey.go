package apikey

import (
	"crypto/subtle"

	"checkout-engine/internal/core/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

// Header is the Supabase-style key header accepted next to the bearer token.
const Header = "apikey"

// Middleware protects trusted routes with a shared key, sent either as a bearer token
// or in the apikey header. An empty key disables the check.
func Middleware(key string) fiber.Handler {
	if key == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	auth := keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(_ *fiber.Ctx, got string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1 {
				return true, nil
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperror.Write(c, apperror.Wrap(apperror.CodeUnauthorized, err, "Invalid API key"))
		},
	})

	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			if k := c.Get(Header); k != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+k)
			}
		}
		return auth(c)
	}
}
