package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

// TaskHandler serves daily tasks, learner submissions and admin reviews.
type TaskHandler struct {
	service service.TaskService
	logger  zerolog.Logger
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(service service.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register binds learner task routes. submitGuard throttles submissions.
func (h *TaskHandler) Register(router fiber.Router, submitGuard ...fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/submissions/me", h.mySubmissions)
	router.Get("/:id", h.get)

	submit := append(append([]fiber.Handler{}, submitGuard...), h.submit)
	router.Post("/:id/submissions", submit...)
}

// RegisterAdminTasks binds task management.
func (h *TaskHandler) RegisterAdminTasks(router fiber.Router) {
	router.Post("/", h.create)
}

// RegisterAdminSubmissions binds the review queue.
func (h *TaskHandler) RegisterAdminSubmissions(router fiber.Router) {
	router.Get("/", h.listSubmissions)
	router.Patch("/:id/review", h.review)
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	tasks, err := h.service.ListTasks(requestContext(c), c.Query("course_id"))
	if err != nil {
		return handleError(c, h.logger, err, "list tasks")
	}
	return utils.SendSuccess(c, "tasks", tasks)
}

func (h *TaskHandler) get(c *fiber.Ctx) error {
	task, err := h.service.GetTask(requestContext(c), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err, "load task")
	}
	return utils.SendSuccess(c, "task", task)
}

func (h *TaskHandler) create(c *fiber.Ctx) error {
	var payload dto.TaskCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	task, err := h.service.CreateTask(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "create task")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", task)
}

func (h *TaskHandler) submit(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	var payload dto.TaskSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	var file *multipart.FileHeader
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid multipart form")
		}
		if files := form.File["file"]; len(files) > 0 {
			file = files[0]
		}
	}

	submission, err := h.service.SubmitTask(requestContext(c), c.Params("id"), userID, payload, file)
	if err != nil {
		return handleError(c, h.logger, err, "submit task")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task submitted", submission)
}

func (h *TaskHandler) mySubmissions(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return errUnauthenticated(c)
	}

	submissions, err := h.service.ListSubmissions(requestContext(c), dto.TaskSubmissionFilter{
		UserID: userID,
		TaskID: c.Query("task_id"),
		Status: c.Query("status"),
	})
	if err != nil {
		return handleError(c, h.logger, err, "list submissions")
	}
	return utils.SendSuccess(c, "submissions", submissions)
}

func (h *TaskHandler) listSubmissions(c *fiber.Ctx) error {
	var filter dto.TaskSubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	submissions, err := h.service.ListSubmissions(requestContext(c), filter)
	if err != nil {
		return handleError(c, h.logger, err, "list submissions")
	}
	return utils.SendSuccess(c, "submissions", submissions)
}

func (h *TaskHandler) review(c *fiber.Ctx) error {
	var payload dto.TaskReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.ReviewSubmission(requestContext(c), c.Params("id"), payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "review submission")
	}
	return utils.SendSuccess(c, "submission reviewed", submission)
}
