package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyRequired guards admin routes with the X-API-KEY header. An empty
// configured key disables the routes.
func APIKeyRequired(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin API is disabled",
			})
		}
		given := c.Get("X-API-KEY")
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid API key",
			})
		}
		return c.Next()
	}
}
