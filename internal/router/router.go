package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/coursehub-api/internal/config"
	"github.com/noah-isme/coursehub-api/internal/handler"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler           *handler.CourseHandler
	AdminFeedbackHandler    *handler.AdminFeedbackHandler
	MCQHandler              *handler.MCQHandler
	TaskHandler             *handler.TaskHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	NotificationHandler     *handler.NotificationHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	SeedHandler             *handler.SeedHandler
	HealthProbes            map[string]handler.HealthProbe
	JWTMiddleware           fiber.Handler
	SubmissionLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, handler.HealthCheck(cfg, deps.HealthProbes))

	// Seeding authenticates with its own token, so it sits outside the JWT guarded admin group.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(app.Group("/api/admin/seed"))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	var submitGuards []fiber.Handler
	if deps.SubmissionLimiter != nil {
		submitGuards = append(submitGuards, deps.SubmissionLimiter)
	}

	api := app.Group("/api/v1", jwtMiddleware, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	if deps.CourseHandler != nil {
		courses := api.Group("/courses")
		// static segments before the :id catch-all
		if deps.MCQHandler != nil {
			deps.MCQHandler.RegisterCourseRoutes(courses)
		}
		deps.CourseHandler.Register(courses, submitGuards...)
	}

	if deps.MCQHandler != nil {
		deps.MCQHandler.Register(api.Group("/mcq"))
	}

	if deps.TaskHandler != nil {
		deps.TaskHandler.Register(api.Group("/tasks"), submitGuards...)
	}

	if deps.StudentDashboardHandler != nil {
		deps.StudentDashboardHandler.Register(api.Group("/student"))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications"))
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireModerator())

	if deps.AdminFeedbackHandler != nil {
		deps.AdminFeedbackHandler.Register(admin.Group("/feedback"))
		deps.AdminFeedbackHandler.RegisterCourseRoutes(admin.Group("/courses"))
	}

	if deps.MCQHandler != nil {
		deps.MCQHandler.RegisterAdmin(admin.Group("/questions"))
	}

	if deps.TaskHandler != nil {
		deps.TaskHandler.RegisterAdminTasks(admin.Group("/tasks"))
		deps.TaskHandler.RegisterAdminSubmissions(admin.Group("/submissions"))
	}

	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activities"))
	}
}
