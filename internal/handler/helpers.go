package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   middleware.UserID(c),
		Role: middleware.UserRole(c),
	}
}

// requestContext returns the request's user context carrying its correlation id.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(c, base)
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// validationDetails flattens validator errors into field -> rule pairs.
func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		details[fieldErr.Namespace()] = rule
	}
	return details
}

func errorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrFeedbackNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, service.ErrSessionForbidden),
		errors.Is(err, service.ErrSeedDisabled),
		errors.Is(err, service.ErrSeedUnauthorized):
		return fiber.StatusForbidden, true
	case errors.Is(err, service.ErrSessionClosed):
		return fiber.StatusConflict, true
	case errors.Is(err, service.ErrInvalidFeedback),
		errors.Is(err, service.ErrQuestionNotInSession),
		errors.Is(err, service.ErrQuestionOtherCourse),
		errors.Is(err, service.ErrScoreExceedsMax),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrInvalidSeedPayload):
		return fiber.StatusBadRequest, true
	case errors.Is(err, service.ErrNoQuestions):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, service.ErrNotificationUserRequired):
		return fiber.StatusUnauthorized, true
	case errors.Is(err, service.ErrUploadUnavailable):
		return fiber.StatusServiceUnavailable, true
	default:
		return 0, false
	}
}

// handleError maps domain errors to client responses and logs anything unexpected.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}
	if status, ok := errorStatus(err); ok {
		return utils.SendError(c, status, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("failed to " + action)
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to "+action)
}

func errUnauthenticated(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
}
