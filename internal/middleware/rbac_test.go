package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func moderatorApp(userID string, role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals(LocalUserID, userID)
		}
		if role != nil {
			c.Locals(LocalUserRole, role)
		}
		return c.Next()
	})
	admin := app.Group("/api/admin", RequireModerator())
	admin.Post("/feedback/:id/approve", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireModerator(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		role   interface{}
		status int
	}{
		{name: "admin", userID: "admin-1", role: RoleAdmin, status: fiber.StatusOK},
		{name: "teacher with padded casing", userID: "teacher-1", role: " Teacher ", status: fiber.StatusOK},
		{name: "role list from claims", userID: "teacher-2", role: []interface{}{"teacher", "student"}, status: fiber.StatusOK},
		{name: "student", userID: "learner-1", role: RoleStudent, status: fiber.StatusForbidden},
		{name: "missing role", userID: "learner-2", status: fiber.StatusForbidden},
		{name: "anonymous", role: RoleAdmin, status: fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := moderatorApp(tc.userID, tc.role)
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/admin/feedback/fb-1/approve", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoleIgnoresBlankEntries(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "learner-1")
		c.Locals(LocalUserRole, "")
		return c.Next()
	})
	app.Get("/student", RequireRole(RoleStudent, " "), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/student", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
