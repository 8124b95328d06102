package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

// MCQHandler serves quiz sessions and the question bank.
type MCQHandler struct {
	service service.MCQService
	logger  zerolog.Logger
}

// NewMCQHandler constructs the handler.
func NewMCQHandler(service service.MCQService, logger zerolog.Logger) *MCQHandler {
	return &MCQHandler{
		service: service,
		logger:  logger.With().Str("component", "mcq_handler").Logger(),
	}
}

// Register binds learner session routes.
func (h *MCQHandler) Register(router fiber.Router) {
	router.Post("/sessions", h.start)
	router.Get("/sessions", h.listSessions)
	router.Get("/sessions/:id", h.getSession)
	router.Get("/sessions/:id/result", h.result)
	router.Post("/sessions/:id/answers", h.answer)
	router.Post("/sessions/:id/complete", h.complete)
	router.Post("/sessions/:id/abandon", h.abandon)
}

// RegisterCourseRoutes binds the per-course question listing.
func (h *MCQHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/questions", h.listQuestions)
}

// RegisterAdmin binds question bank management.
func (h *MCQHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/", h.createQuestion)
}

func (h *MCQHandler) listQuestions(c *fiber.Ctx) error {
	var filter dto.MCQQuestionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}
	filter.CourseID = c.Params("id")

	questions, err := h.service.ListQuestions(requestContext(c), filter)
	if err != nil {
		return handleError(c, h.logger, err, "list questions")
	}
	return utils.SendSuccess(c, "questions", questions)
}

func (h *MCQHandler) createQuestion(c *fiber.Ctx) error {
	var payload dto.MCQQuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.service.CreateQuestion(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "create question")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *MCQHandler) start(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	var payload dto.MCQStartRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.service.StartSession(requestContext(c), userID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "start session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session started", session)
}

func (h *MCQHandler) listSessions(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	sessions, err := h.service.ListSessions(requestContext(c), userID, c.Query("course_id"))
	if err != nil {
		return handleError(c, h.logger, err, "list sessions")
	}
	return utils.SendSuccess(c, "sessions", sessions)
}

func (h *MCQHandler) getSession(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	session, err := h.service.GetSession(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return handleError(c, h.logger, err, "load session")
	}
	return utils.SendSuccess(c, "session", session)
}

func (h *MCQHandler) result(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	result, err := h.service.Result(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return handleError(c, h.logger, err, "load session result")
	}
	return utils.SendSuccess(c, "session result", result)
}

func (h *MCQHandler) answer(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	var payload dto.MCQAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	attempt, err := h.service.SubmitAnswer(requestContext(c), c.Params("id"), userID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "record answer")
	}
	return utils.SendSuccess(c, "answer recorded", attempt)
}

func (h *MCQHandler) complete(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	session, err := h.service.CompleteSession(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return handleError(c, h.logger, err, "complete session")
	}
	return utils.SendSuccess(c, "session completed", session)
}

func (h *MCQHandler) abandon(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	session, err := h.service.AbandonSession(requestContext(c), c.Params("id"), userID)
	if err != nil {
		return handleError(c, h.logger, err, "abandon session")
	}
	return utils.SendSuccess(c, "session abandoned", session)
}
