package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

// CourseHandler serves the catalog, course ratings and learner reviews.
type CourseHandler struct {
	courses  service.CourseService
	ratings  service.RatingService
	feedback service.FeedbackService
	logger   zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses service.CourseService, ratings service.RatingService, feedback service.FeedbackService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		ratings:  ratings,
		feedback: feedback,
		logger:   logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register binds course routes. submitGuard throttles review submissions.
func (h *CourseHandler) Register(router fiber.Router, submitGuard ...fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/rating", h.rating)
	router.Get("/:id/feedback", h.listFeedback)
	router.Get("/:id/feedback/me", h.myFeedback)

	submit := append(append([]fiber.Handler{}, submitGuard...), h.submitFeedback)
	router.Post("/:id/feedback", submit...)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.courses.List(requestContext(c), c.Query("category"))
	if err != nil {
		return handleError(c, h.logger, err, "list courses")
	}
	return utils.SendSuccess(c, "courses", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	course, err := h.courses.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "load course")
	}
	return utils.SendSuccess(c, "course", course)
}

func (h *CourseHandler) rating(c *fiber.Ctx) error {
	rating, err := h.ratings.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "load course rating")
	}
	return utils.SendSuccess(c, "course rating", rating)
}

func (h *CourseHandler) listFeedback(c *fiber.Ctx) error {
	items, err := h.feedback.ListByCourse(requestContext(c), c.Params("id"), true)
	if err != nil {
		return handleError(c, h.logger, err, "list feedback")
	}
	return utils.SendSuccess(c, "course feedback", items)
}

func (h *CourseHandler) myFeedback(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	feedback, err := h.feedback.GetForUser(requestContext(c), userID, c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "load feedback")
	}
	return utils.SendSuccess(c, "your feedback", feedback)
}

func (h *CourseHandler) submitFeedback(c *fiber.Ctx) error {
	actor := activityActorFromContext(c)
	if actor.ID == "" {
		return errUnauthenticated(c)
	}

	var payload dto.FeedbackSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.CourseID = c.Params("id")
	if strings.TrimSpace(payload.StudentName) == "" {
		payload.StudentName = middleware.UserName(c)
	}

	feedback, err := h.feedback.Submit(requestContext(c), actor, payload)
	if err != nil {
		return handleError(c, h.logger, err, "submit feedback")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback submitted for review", feedback)
}
