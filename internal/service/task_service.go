package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/observability"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

const bytesPerMB = 1 << 20

var (
	// ErrTaskNotFound indicates the daily task could not be located.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrScoreExceedsMax indicates a review score surpasses the task points.
	ErrScoreExceedsMax = errors.New("score exceeds task max score")
	// ErrInvalidSubmission indicates the submitted content does not meet the task requirements.
	ErrInvalidSubmission = errors.New("submission does not meet task requirements")
	// ErrUploadUnavailable indicates a file was submitted but no uploader is configured.
	ErrUploadUnavailable = errors.New("file uploads are not configured")
)

// defaultAllowedMimes applies when a file task does not list its own types.
var defaultAllowedMimes = []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// TaskService covers daily task management, submission and review.
type TaskService interface {
	CreateTask(ctx context.Context, req dto.TaskCreateRequest) (dto.TaskResponse, error)
	ListTasks(ctx context.Context, courseID string) ([]dto.TaskResponse, error)
	GetTask(ctx context.Context, id string) (dto.TaskResponse, error)
	SubmitTask(ctx context.Context, taskID, userID string, req dto.TaskSubmitRequest, file *multipart.FileHeader) (dto.TaskSubmissionResponse, error)
	ReviewSubmission(ctx context.Context, submissionID string, req dto.TaskReviewRequest, actor ActivityActor) (dto.TaskSubmissionResponse, error)
	ListSubmissions(ctx context.Context, filter dto.TaskSubmissionFilter) ([]dto.TaskSubmissionResponse, error)
}

type taskService struct {
	tasks       repository.TaskRepository
	submissions repository.TaskSubmissionRepository
	uploader    FileUploader
	activity    ActivityRecorder
	notifier    Notifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewTaskService constructs the task workflow. Uploader, activity recorder and notifier may be nil.
func NewTaskService(tasks repository.TaskRepository, submissions repository.TaskSubmissionRepository, uploader FileUploader, activity ActivityRecorder, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:       tasks,
		submissions: submissions,
		uploader:    uploader,
		activity:    activity,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "task_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/coursehub-api/internal/service/task"),
		now:         time.Now,
	}
}

func (s *taskService) CreateTask(ctx context.Context, req dto.TaskCreateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TaskResponse{}, err
	}
	if req.MaxWords > 0 && req.MinWords > req.MaxWords {
		return dto.TaskResponse{}, fmt.Errorf("%w: min_words exceeds max_words", ErrInvalidSubmission)
	}

	task := newTaskModel(req)
	if err := s.tasks.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	s.logger.Info().Str("task_id", task.ID).Str("type", task.Type).Msg("task created")
	return dto.NewTaskResponse(task), nil
}

func (s *taskService) ListTasks(ctx context.Context, courseID string) ([]dto.TaskResponse, error) {
	tasks, err := s.tasks.List(ctx, strings.TrimSpace(courseID))
	if err != nil {
		return nil, err
	}
	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) GetTask(ctx context.Context, id string) (dto.TaskResponse, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	return dto.NewTaskResponse(task), nil
}

func (s *taskService) SubmitTask(ctx context.Context, taskID, userID string, req dto.TaskSubmitRequest, file *multipart.FileHeader) (dto.TaskSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TaskSubmissionResponse{}, err
	}

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return dto.TaskSubmissionResponse{}, err
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Text))
	code := strings.TrimSpace(req.Code)
	requirements := task.Requirements.Data()

	if err := checkContent(task.Type, requirements, text, code, file); err != nil {
		return dto.TaskSubmissionResponse{}, err
	}

	submittedAt := s.now()
	submission := models.TaskSubmission{
		ID:          uuid.NewString(),
		TaskID:      task.ID,
		UserID:      userID,
		Text:        text,
		Code:        code,
		Language:    strings.ToLower(strings.TrimSpace(req.Language)),
		SubmittedAt: submittedAt,
		IsLate:      task.IsPastDue(submittedAt),
		Status:      models.TaskSubmissionSubmitted,
		MaxScore:    task.Points,
	}

	if file != nil {
		detected, err := checkFile(file, requirements)
		if err != nil {
			return dto.TaskSubmissionResponse{}, err
		}
		url, err := s.upload(ctx, file)
		if err != nil {
			return dto.TaskSubmissionResponse{}, err
		}
		submission.FileURL = url
		submission.FileName = filepath.Base(file.Filename)
		submission.FileSize = file.Size
		submission.FileType = detected
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.TaskSubmissionResponse{}, err
	}
	submission.Task = task

	observability.TaskSubmissions().WithLabelValues(fmt.Sprintf("%t", submission.IsLate)).Inc()
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("task_id", task.ID).
		Bool("late", submission.IsLate).
		Msg("task submitted")

	return dto.NewTaskSubmissionResponse(submission), nil
}

func (s *taskService) upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadUnavailable
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return url, nil
}

func (s *taskService) ReviewSubmission(ctx context.Context, submissionID string, req dto.TaskReviewRequest, actor ActivityActor) (dto.TaskSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "task.review", trace.WithAttributes(
		attribute.String("review.submission_id", submissionID),
		attribute.String("review.actor_id", actor.ID),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.TaskSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.TaskSubmissionResponse{}, ErrSubmissionNotFound
		}
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.TaskSubmissionResponse{}, err
	}

	if req.Score != nil && *req.Score > submission.MaxScore+1e-9 {
		span.RecordError(ErrScoreExceedsMax)
		span.SetStatus(codes.Error, "score_exceeds_max")
		return dto.TaskSubmissionResponse{}, ErrScoreExceedsMax
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback))
	if reviewUnchanged(submission, req, feedback, actor.ID) {
		span.SetAttributes(attribute.Bool("review.idempotent", true))
		return dto.NewTaskSubmissionResponse(submission), nil
	}

	reviewedAt := s.now()
	reviewer := actor.ID
	if req.Score != nil {
		score := *req.Score
		submission.Score = &score
	} else {
		submission.Score = nil
	}
	submission.Feedback = feedback
	submission.Status = req.Status
	submission.ReviewedBy = &reviewer
	submission.ReviewedAt = &reviewedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.TaskSubmissionResponse{}, err
	}

	metadata := map[string]interface{}{
		"task_id": submission.TaskID,
		"user_id": submission.UserID,
		"status":  submission.Status,
	}
	if submission.Score != nil {
		metadata["score"] = *submission.Score
		span.SetAttributes(attribute.Float64("review.score", *submission.Score))
	}
	span.SetAttributes(attribute.String("review.status", submission.Status))

	observability.TaskReviews().WithLabelValues(submission.Status).Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "task_submission.reviewed",
		EntityType: "task_submission",
		EntityID:   submission.ID,
		Metadata:   metadata,
	})

	title := submission.TaskID
	if submission.Task.Title != "" {
		title = submission.Task.Title
	}
	notify(ctx, s.notifier, s.logger, submission.UserID, NotificationTaskReviewed,
		fmt.Sprintf("Your submission for %s was reviewed: %s.", title, strings.ReplaceAll(submission.Status, "_", " ")))

	return dto.NewTaskSubmissionResponse(submission), nil
}

func (s *taskService) ListSubmissions(ctx context.Context, filter dto.TaskSubmissionFilter) ([]dto.TaskSubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.TaskSubmissionFilter{
		TaskID: filter.TaskID,
		UserID: filter.UserID,
		Status: filter.Status,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewTaskSubmissionResponseSlice(submissions), nil
}

func (s *taskService) loadTask(ctx context.Context, id string) (models.DailyTask, error) {
	task, err := s.tasks.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DailyTask{}, ErrTaskNotFound
		}
		return models.DailyTask{}, err
	}
	return task, nil
}

func newTaskModel(req dto.TaskCreateRequest) models.DailyTask {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	allowed := make([]string, 0, len(req.AllowedFileTypes))
	for _, ext := range req.AllowedFileTypes {
		allowed = append(allowed, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
	}

	return models.DailyTask{
		ID:          id,
		CourseID:    strings.TrimSpace(req.CourseID),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		Requirements: datatypes.NewJSONType(models.TaskRequirements{
			MinWords:         req.MinWords,
			MaxWords:         req.MaxWords,
			AllowedFileTypes: allowed,
			MaxFileSizeMB:    req.MaxFileSizeMB,
		}),
		Points:  req.Points,
		DueDate: req.DueDate.UTC(),
	}
}

func reviewUnchanged(submission models.TaskSubmission, req dto.TaskReviewRequest, feedback, reviewerID string) bool {
	if submission.Status != req.Status || strings.TrimSpace(submission.Feedback) != feedback {
		return false
	}
	if submission.ReviewedBy == nil || *submission.ReviewedBy != reviewerID {
		return false
	}
	switch {
	case submission.Score == nil && req.Score == nil:
		return true
	case submission.Score == nil || req.Score == nil:
		return false
	default:
		return math.Abs(*submission.Score-*req.Score) < 1e-6
	}
}

// checkContent verifies the submission carries what the task type demands.
func checkContent(taskType string, requirements models.TaskRequirements, text, code string, file *multipart.FileHeader) error {
	switch taskType {
	case models.TaskTypeText:
		if text == "" {
			return fmt.Errorf("%w: text is required", ErrInvalidSubmission)
		}
	case models.TaskTypeCode:
		if code == "" {
			return fmt.Errorf("%w: code is required", ErrInvalidSubmission)
		}
	case models.TaskTypeFile:
		if file == nil {
			return fmt.Errorf("%w: file is required", ErrInvalidSubmission)
		}
	default:
		if text == "" && code == "" && file == nil {
			return fmt.Errorf("%w: submission is empty", ErrInvalidSubmission)
		}
	}

	if text == "" {
		return nil
	}

	words := len(strings.Fields(text))
	if requirements.MinWords > 0 && words < requirements.MinWords {
		return fmt.Errorf("%w: at least %d words required, got %d", ErrInvalidSubmission, requirements.MinWords, words)
	}
	if requirements.MaxWords > 0 && words > requirements.MaxWords {
		return fmt.Errorf("%w: at most %d words allowed, got %d", ErrInvalidSubmission, requirements.MaxWords, words)
	}
	return nil
}

// checkFile enforces the size limit and sniffs the content type. It returns the detected MIME type.
func checkFile(file *multipart.FileHeader, requirements models.TaskRequirements) (string, error) {
	if requirements.MaxFileSizeMB > 0 && file.Size > int64(requirements.MaxFileSizeMB)*bytesPerMB {
		return "", fmt.Errorf("%w: file exceeds %d MB", ErrInvalidSubmission, requirements.MaxFileSizeMB)
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	if len(requirements.AllowedFileTypes) == 0 {
		for _, allowed := range defaultAllowedMimes {
			if detected.Is(allowed) {
				return detected.String(), nil
			}
		}
		return "", fmt.Errorf("%w: unsupported file type %s", ErrInvalidSubmission, detected.String())
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	sniffed := strings.TrimPrefix(detected.Extension(), ".")
	for _, allowed := range requirements.AllowedFileTypes {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "."))
		if strings.Contains(allowed, "/") {
			if detected.Is(allowed) {
				return detected.String(), nil
			}
			continue
		}
		if allowed == sniffed {
			return detected.String(), nil
		}
		// plain text formats sniff as .txt, so trust the declared extension for them
		if allowed == ext && detected.Is("text/plain") {
			return detected.String(), nil
		}
	}

	return "", fmt.Errorf("%w: unsupported file type %s", ErrInvalidSubmission, detected.String())
}
