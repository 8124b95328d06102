package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

// AdminFeedbackHandler exposes review moderation to admins and teachers.
type AdminFeedbackHandler struct {
	feedback service.FeedbackService
	ratings  service.RatingService
	logger   zerolog.Logger
}

// NewAdminFeedbackHandler constructs the handler.
func NewAdminFeedbackHandler(feedback service.FeedbackService, ratings service.RatingService, logger zerolog.Logger) *AdminFeedbackHandler {
	return &AdminFeedbackHandler{
		feedback: feedback,
		ratings:  ratings,
		logger:   logger.With().Str("component", "admin_feedback_handler").Logger(),
	}
}

// Register attaches moderation routes to the router group.
func (h *AdminFeedbackHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/stats", h.stats)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/reject", h.reject)
	router.Post("/:id/respond", h.respond)
}

// RegisterCourseRoutes attaches the rating maintenance route under /courses.
func (h *AdminFeedbackHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Post("/:id/rating/recompute", h.recompute)
}

func (h *AdminFeedbackHandler) list(c *fiber.Ctx) error {
	var req dto.FeedbackListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	response, err := h.feedback.List(requestContext(c), req)
	if err != nil {
		return handleError(c, h.logger, err, "list feedback")
	}
	return utils.OK(c, response.Items, "feedback", response.Pagination)
}

func (h *AdminFeedbackHandler) stats(c *fiber.Ctx) error {
	stats, err := h.feedback.Stats(requestContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "load feedback stats")
	}
	return utils.SendSuccess(c, "feedback stats", stats)
}

func (h *AdminFeedbackHandler) approve(c *fiber.Ctx) error {
	feedback, err := h.feedback.Approve(requestContext(c), c.Params("id"), activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "approve feedback")
	}
	return utils.SendSuccess(c, "feedback approved", feedback)
}

func (h *AdminFeedbackHandler) reject(c *fiber.Ctx) error {
	feedback, err := h.feedback.Reject(requestContext(c), c.Params("id"), activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "reject feedback")
	}
	return utils.SendSuccess(c, "feedback rejected", feedback)
}

func (h *AdminFeedbackHandler) respond(c *fiber.Ctx) error {
	var payload dto.FeedbackRespondRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	feedback, err := h.feedback.Respond(requestContext(c), c.Params("id"), payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "respond to feedback")
	}
	return utils.SendSuccess(c, "response saved", feedback)
}

func (h *AdminFeedbackHandler) recompute(c *fiber.Ctx) error {
	rating, err := h.ratings.Recompute(requestContext(c), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "recompute rating")
	}
	return utils.SendSuccess(c, "rating recomputed", rating)
}
