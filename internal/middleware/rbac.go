package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coursehub-api/internal/utils"
)

// Roles carried in the JWT role claim.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// RequireModerator guards the admin surface: feedback moderation, content management and reviews.
func RequireModerator() fiber.Handler {
	return RequireRole(RoleAdmin, RoleTeacher)
}

// RequireRole rejects callers whose role is not in the allow-list. Requests without an
// authenticated user are answered with 401 so clients can tell a missing token from a wrong role.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[UserRole(c)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	if role := normalizeRole(value); role != "" {
		return role
	}
	if stringer, ok := value.(fmt.Stringer); ok {
		return strings.ToLower(strings.TrimSpace(stringer.String()))
	}
	return ""
}
