package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/observability"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

const minReviewLength = 10

var (
	// ErrFeedbackNotFound indicates the review could not be located.
	ErrFeedbackNotFound = errors.New("feedback not found")
	// ErrInvalidFeedback indicates the review content failed validation after sanitizing.
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
)

// FeedbackService implements the review submission and moderation workflow.
type FeedbackService interface {
	Submit(ctx context.Context, actor ActivityActor, req dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error)
	Approve(ctx context.Context, id string, actor ActivityActor) (dto.FeedbackResponse, error)
	Reject(ctx context.Context, id string, actor ActivityActor) (dto.FeedbackResponse, error)
	Respond(ctx context.Context, id string, req dto.FeedbackRespondRequest, actor ActivityActor) (dto.FeedbackResponse, error)
	ListByCourse(ctx context.Context, courseID string, approvedOnly bool) ([]dto.FeedbackResponse, error)
	List(ctx context.Context, req dto.FeedbackListRequest) (dto.FeedbackListResponse, error)
	GetForUser(ctx context.Context, userID, courseID string) (dto.FeedbackResponse, error)
	Stats(ctx context.Context) (dto.FeedbackStatsResponse, error)
}

type feedbackService struct {
	feedback  repository.FeedbackRepository
	courses   repository.CourseRepository
	ratings   RatingService
	activity  ActivityRecorder
	notifier  Notifier
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewFeedbackService constructs the feedback workflow. Activity recorder and notifier may be nil.
func NewFeedbackService(feedback repository.FeedbackRepository, courses repository.CourseRepository, ratings RatingService, activity ActivityRecorder, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		feedback:  feedback,
		courses:   courses,
		ratings:   ratings,
		activity:  activity,
		notifier:  notifier,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "feedback_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/coursehub-api/internal/service/feedback"),
		now:       time.Now,
	}
}

func (s *feedbackService) Submit(ctx context.Context, actor ActivityActor, req dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FeedbackResponse{}, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return dto.FeedbackResponse{}, fmt.Errorf("%w: user is required", ErrInvalidFeedback)
	}

	review := strings.TrimSpace(s.sanitizer.Sanitize(req.Review))
	if utf8.RuneCountInString(review) < minReviewLength {
		return dto.FeedbackResponse{}, fmt.Errorf("%w: review must be at least %d characters", ErrInvalidFeedback, minReviewLength)
	}

	courseID := strings.TrimSpace(req.CourseID)
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackResponse{}, ErrCourseNotFound
		}
		return dto.FeedbackResponse{}, err
	}

	kind := "new"
	if _, err := s.feedback.GetByUserAndCourse(ctx, actor.ID, courseID); err == nil {
		kind = "resubmission"
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.FeedbackResponse{}, err
	}

	studentName := strings.TrimSpace(s.sanitizer.Sanitize(req.StudentName))
	if studentName == "" {
		studentName = actor.ID
	}

	feedback := models.Feedback{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		CourseID:    courseID,
		StudentName: studentName,
	}
	feedback.ResetForResubmission(req.Rating, review, s.now())

	if err := s.feedback.Upsert(ctx, &feedback); err != nil {
		return dto.FeedbackResponse{}, err
	}

	observability.FeedbackSubmissions().WithLabelValues(kind).Inc()
	s.logger.Info().Str("feedback_id", feedback.ID).Str("course_id", courseID).Str("kind", kind).Msg("feedback submitted")

	s.recompute(ctx, courseID)

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) Approve(ctx context.Context, id string, actor ActivityActor) (dto.FeedbackResponse, error) {
	return s.moderate(ctx, id, models.FeedbackStatusApproved, actor)
}

func (s *feedbackService) Reject(ctx context.Context, id string, actor ActivityActor) (dto.FeedbackResponse, error) {
	return s.moderate(ctx, id, models.FeedbackStatusRejected, actor)
}

func (s *feedbackService) moderate(ctx context.Context, id string, target models.FeedbackStatus, actor ActivityActor) (dto.FeedbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.moderate", trace.WithAttributes(
		attribute.String("feedback.id", id),
		attribute.String("feedback.target_status", string(target)),
		attribute.String("feedback.actor_id", actor.ID),
	))
	defer span.End()

	feedback, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback_lookup_failed")
		return dto.FeedbackResponse{}, err
	}

	if feedback.Status == target {
		span.SetAttributes(attribute.Bool("feedback.idempotent", true))
		return dto.NewFeedbackResponse(feedback), nil
	}

	moderatedAt := s.now()
	moderatedBy := actor.ID
	feedback.Status = target
	feedback.IsApproved = target == models.FeedbackStatusApproved
	feedback.ModeratedAt = &moderatedAt
	feedback.ModeratedBy = &moderatedBy

	if err := s.feedback.Update(ctx, &feedback); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback_update_failed")
		return dto.FeedbackResponse{}, err
	}

	s.recompute(ctx, feedback.CourseID)

	action := "feedback.approved"
	kind := NotificationFeedbackApproved
	message := fmt.Sprintf("Your review for %s has been approved.", feedback.CourseID)
	if target == models.FeedbackStatusRejected {
		action = "feedback.rejected"
		kind = NotificationFeedbackRejected
		message = fmt.Sprintf("Your review for %s was not approved.", feedback.CourseID)
	}

	observability.FeedbackModerations().WithLabelValues(string(target)).Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "feedback",
		EntityID:   feedback.ID,
		Metadata: map[string]interface{}{
			"course_id": feedback.CourseID,
			"user_id":   feedback.UserID,
			"rating":    feedback.Rating,
		},
	})
	notify(ctx, s.notifier, s.logger, feedback.UserID, kind, message)

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) Respond(ctx context.Context, id string, req dto.FeedbackRespondRequest, actor ActivityActor) (dto.FeedbackResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FeedbackResponse{}, err
	}

	response := strings.TrimSpace(s.sanitizer.Sanitize(req.Response))
	if response == "" {
		return dto.FeedbackResponse{}, fmt.Errorf("%w: response is empty after sanitization", ErrInvalidFeedback)
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	respondedAt := s.now()
	feedback.AdminResponse = &response
	feedback.AdminResponseDate = &respondedAt

	if err := s.feedback.Update(ctx, &feedback); err != nil {
		return dto.FeedbackResponse{}, err
	}

	observability.FeedbackModerations().WithLabelValues("responded").Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "feedback.responded",
		EntityType: "feedback",
		EntityID:   feedback.ID,
		Metadata:   map[string]interface{}{"course_id": feedback.CourseID},
	})
	notify(ctx, s.notifier, s.logger, feedback.UserID, NotificationFeedbackResponded,
		fmt.Sprintf("An instructor replied to your review for %s.", feedback.CourseID))

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) ListByCourse(ctx context.Context, courseID string, approvedOnly bool) ([]dto.FeedbackResponse, error) {
	filter := repository.FeedbackFilter{CourseID: courseID}
	if approvedOnly {
		filter.Status = string(models.FeedbackStatusApproved)
	}

	items, _, err := s.feedback.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewFeedbackResponseSlice(items), nil
}

func (s *feedbackService) List(ctx context.Context, req dto.FeedbackListRequest) (dto.FeedbackListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FeedbackListResponse{}, err
	}

	items, total, err := s.feedback.List(ctx, repository.FeedbackFilter{
		CourseID: strings.TrimSpace(req.CourseID),
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.FeedbackListResponse{}, err
	}

	return dto.FeedbackListResponse{
		Items:      dto.NewFeedbackResponseSlice(items),
		Pagination: paginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *feedbackService) GetForUser(ctx context.Context, userID, courseID string) (dto.FeedbackResponse, error) {
	feedback, err := s.feedback.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackResponse{}, ErrFeedbackNotFound
		}
		return dto.FeedbackResponse{}, err
	}
	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) Stats(ctx context.Context) (dto.FeedbackStatsResponse, error) {
	counts, err := s.feedback.CountByStatus(ctx)
	if err != nil {
		return dto.FeedbackStatsResponse{}, err
	}

	stats := dto.FeedbackStatsResponse{
		Pending:  counts[models.FeedbackStatusPending],
		Approved: counts[models.FeedbackStatusApproved],
		Rejected: counts[models.FeedbackStatusRejected],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}

func (s *feedbackService) load(ctx context.Context, id string) (models.Feedback, error) {
	feedback, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Feedback{}, ErrFeedbackNotFound
		}
		return models.Feedback{}, err
	}
	return feedback, nil
}

// recompute refreshes the course aggregate. A failure leaves the previous aggregate in place and is only
// logged; admins can trigger the recompute again.
func (s *feedbackService) recompute(ctx context.Context, courseID string) {
	if s.ratings == nil {
		return
	}
	if _, err := s.ratings.Recompute(ctx, courseID); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("course rating not updated")
	}
}
