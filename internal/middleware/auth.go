package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coursehub-api/internal/utils"
)

// RequireUser rejects requests whose token did not identify a user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalUserID).(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// UserRole returns the normalized role claim.
func UserRole(c *fiber.Ctx) string {
	return normalizeRoleValue(c.Locals(LocalUserRole))
}

// UserName returns the display name claim, if the token carried one.
func UserName(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalUserName).(string); ok {
		return value
	}
	return ""
}
