package middleware

import (
	"time"

	"shopfusion/internal/models"
	"shopfusion/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionCookieTTL = 30 * 24 * time.Hour

// CartScope resolves the cart scope of a request once. A valid bearer token
// selects the user's cart; otherwise the session cookie does, and a new
// session token is minted when the cookie is missing.
func CartScope(authService *services.AuthService, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := authService.ValidateToken(tokenString); err == nil {
				if userID, _ := claims["user_id"].(string); userID != "" {
					c.Locals(LocalUserID, userID)
					c.Locals(LocalUsername, claims["username"])
					c.Locals(LocalScope, models.UserScope(userID))
					return c.Next()
				}
			}
		}

		token := c.Cookies(cookieName)
		if token == "" {
			token = uuid.New().String()
			c.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(sessionCookieTTL),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(LocalScope, models.SessionScope(token))
		return c.Next()
	}
}

// Scope returns the cart scope resolved by CartScope.
func Scope(c *fiber.Ctx) models.CartScope {
	scope, _ := c.Locals(LocalScope).(models.CartScope)
	return scope
}
