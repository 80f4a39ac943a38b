package middleware

import (
	"github.com/gofiber/fiber/v2"

	"photostore/auth"
)

// Resolve extracts the requester's identity from the "jwt" cookie
// (or a Bearer header for API clients) and stashes it in the request
// context. A missing, malformed or badly signed token resolves to the
// empty username - anonymous - and the request continues; handlers
// degrade to public-only access on their own.
func Resolve(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenStr string

		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		} else {
			tokenStr = c.Cookies("jwt")
		}

		c.Locals("username", tokens.Username(tokenStr))
		return c.Next()
	}
}

// RequireLogin rejects anonymous requests. Must run after Resolve.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Username(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}
		return c.Next()
	}
}

// Username returns the verified identity for this request, or "" for
// anonymous.
func Username(c *fiber.Ctx) string {
	username, _ := c.Locals("username").(string)
	return username
}
