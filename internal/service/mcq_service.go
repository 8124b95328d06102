package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

var (
	// ErrQuestionNotFound indicates a question id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionNotInSession indicates the question is not part of the session's question set.
	ErrQuestionNotInSession = errors.New("question is not part of this session")
	// ErrSessionNotFound indicates the quiz session could not be located.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionForbidden indicates the session belongs to another user.
	ErrSessionForbidden = errors.New("session belongs to another user")
	// ErrSessionClosed indicates the session no longer accepts changes.
	ErrSessionClosed = errors.New("session is not in progress")
	// ErrQuestionOtherCourse indicates a requested question belongs to a different course.
	ErrQuestionOtherCourse = errors.New("question belongs to another course")
	// ErrNoQuestions indicates a session could not be assembled because the course has no questions.
	ErrNoQuestions = errors.New("no questions available for course")
)

// MCQConfig tunes quiz defaults.
type MCQConfig struct {
	TimeLimitMinutes     int
	DefaultQuestionCount int
}

// MCQService runs the multiple choice quiz session state machine.
type MCQService interface {
	CreateQuestion(ctx context.Context, req dto.MCQQuestionCreateRequest) (dto.MCQQuestionResponse, error)
	ListQuestions(ctx context.Context, filter dto.MCQQuestionFilter) ([]dto.MCQQuestionResponse, error)
	StartSession(ctx context.Context, userID string, req dto.MCQStartRequest) (dto.MCQSessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, userID string, req dto.MCQAnswerRequest) (dto.MCQAttemptResponse, error)
	CompleteSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error)
	AbandonSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error)
	GetSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error)
	ListSessions(ctx context.Context, userID, courseID string) ([]dto.MCQSessionResponse, error)
	Result(ctx context.Context, sessionID, userID string) (dto.MCQResultResponse, error)
}

type mcqService struct {
	questions repository.MCQQuestionRepository
	sessions  repository.MCQSessionRepository
	attempts  repository.MCQAttemptRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	config    MCQConfig
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
}

// NewMCQService constructs the quiz service.
func NewMCQService(questions repository.MCQQuestionRepository, sessions repository.MCQSessionRepository, attempts repository.MCQAttemptRepository, validate *validator.Validate, logger zerolog.Logger, cfg MCQConfig) MCQService {
	if cfg.TimeLimitMinutes <= 0 {
		cfg.TimeLimitMinutes = 30
	}
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 10
	}

	return &mcqService{
		questions: questions,
		sessions:  sessions,
		attempts:  attempts,
		validator: validate,
		logger:    logger.With().Str("component", "mcq_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/coursehub-api/internal/service/mcq"),
		config:    cfg,
		now:       time.Now,
		shuffle:   rand.Shuffle,
	}
}

func (s *mcqService) CreateQuestion(ctx context.Context, req dto.MCQQuestionCreateRequest) (dto.MCQQuestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MCQQuestionResponse{}, err
	}

	question := newQuestionModel(req)
	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.MCQQuestionResponse{}, err
	}

	s.logger.Info().Str("question_id", question.ID).Str("course_id", question.CourseID).Msg("question created")
	return dto.NewMCQQuestionResponse(question), nil
}

func (s *mcqService) ListQuestions(ctx context.Context, filter dto.MCQQuestionFilter) ([]dto.MCQQuestionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	questions, err := s.questions.List(ctx, repository.MCQQuestionFilter{
		CourseID:   filter.CourseID,
		Difficulty: filter.Difficulty,
		Topic:      filter.Topic,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewMCQQuestionResponseSlice(questions), nil
}

func (s *mcqService) StartSession(ctx context.Context, userID string, req dto.MCQStartRequest) (dto.MCQSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MCQSessionResponse{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return dto.MCQSessionResponse{}, ErrSessionForbidden
	}

	questionIDs, err := s.resolveQuestionIDs(ctx, req)
	if err != nil {
		return dto.MCQSessionResponse{}, err
	}

	session := models.MCQSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    req.CourseID,
		QuestionIDs: datatypes.JSONSlice[string](questionIDs),
		StartTime:   s.now(),
		TotalScore:  0,
		MaxScore:    len(questionIDs),
		Status:      models.MCQSessionInProgress,
		TimeLimit:   s.config.TimeLimitMinutes,
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.MCQSessionResponse{}, err
	}

	observability.MCQSessions().WithLabelValues(models.MCQSessionInProgress).Inc()
	s.logger.Info().Str("session_id", session.ID).Str("course_id", session.CourseID).Int("questions", session.MaxScore).Msg("quiz session started")

	return dto.NewMCQSessionResponse(session), nil
}

func (s *mcqService) resolveQuestionIDs(ctx context.Context, req dto.MCQStartRequest) ([]string, error) {
	// blank ids fall through to a random draw
	if ids := uniqueStrings(req.QuestionIDs); len(ids) > 0 {
		found, err := s.questions.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, ErrQuestionNotFound
		}
		for _, question := range found {
			if question.CourseID != req.CourseID {
				return nil, ErrQuestionOtherCourse
			}
		}
		return ids, nil
	}

	pool, err := s.questions.List(ctx, repository.MCQQuestionFilter{CourseID: req.CourseID})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	count := s.config.DefaultQuestionCount
	if count > len(pool) {
		count = len(pool)
	}

	ids := make([]string, 0, count)
	for _, question := range pool[:count] {
		ids = append(ids, question.ID)
	}
	return ids, nil
}

func (s *mcqService) SubmitAnswer(ctx context.Context, sessionID, userID string, req dto.MCQAnswerRequest) (dto.MCQAttemptResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MCQAttemptResponse{}, err
	}

	session, err := s.loadSession(ctx, sessionID, userID)
	if err != nil {
		return dto.MCQAttemptResponse{}, err
	}
	if !session.IsOpen() {
		return dto.MCQAttemptResponse{}, ErrSessionClosed
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MCQAttemptResponse{}, ErrQuestionNotFound
		}
		return dto.MCQAttemptResponse{}, err
	}
	if !containsString(session.QuestionIDs, question.ID) {
		return dto.MCQAttemptResponse{}, ErrQuestionNotInSession
	}

	isCorrect := req.SelectedAnswer == question.CorrectAnswer
	score := 0
	if isCorrect {
		score = 1
	}

	attempt := models.MCQAttempt{
		ID:             uuid.NewString(),
		SessionID:      session.ID,
		QuestionID:     question.ID,
		UserID:         session.UserID,
		SelectedAnswer: req.SelectedAnswer,
		IsCorrect:      isCorrect,
		Score:          score,
		TimeSpent:      req.TimeSpent,
		AttemptedAt:    s.now(),
	}

	if err := s.attempts.Save(ctx, &attempt); err != nil {
		return dto.MCQAttemptResponse{}, err
	}

	return dto.NewMCQAttemptResponse(attempt), nil
}

func (s *mcqService) CompleteSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "mcq.complete", trace.WithAttributes(attribute.String("mcq.session_id", sessionID)))
	defer span.End()

	session, err := s.loadSession(ctx, sessionID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_lookup_failed")
		return dto.MCQSessionResponse{}, err
	}

	switch session.Status {
	case models.MCQSessionCompleted:
		span.SetAttributes(attribute.Bool("mcq.idempotent", true))
		return dto.NewMCQSessionResponse(session), nil
	case models.MCQSessionAbandoned:
		return dto.MCQSessionResponse{}, ErrSessionClosed
	}

	total, err := s.attempts.SumScore(ctx, session.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_sum_failed")
		return dto.MCQSessionResponse{}, fmt.Errorf("sum attempt scores: %w", err)
	}

	endTime := s.now()
	session.Status = models.MCQSessionCompleted
	session.EndTime = &endTime
	session.TotalScore = total
	session.Percentage = scorePercentage(total, session.MaxScore)

	if err := s.sessions.Update(ctx, &session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_update_failed")
		return dto.MCQSessionResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("mcq.total_score", session.TotalScore),
		attribute.Int("mcq.max_score", session.MaxScore),
	)
	observability.MCQSessions().WithLabelValues(models.MCQSessionCompleted).Inc()
	observability.MCQScorePercentage().Observe(session.Percentage)
	s.logger.Info().Str("session_id", session.ID).Int("total_score", total).Float64("percentage", session.Percentage).Msg("quiz session completed")

	return dto.NewMCQSessionResponse(session), nil
}

func (s *mcqService) AbandonSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID, userID)
	if err != nil {
		return dto.MCQSessionResponse{}, err
	}
	if session.Status == models.MCQSessionAbandoned {
		return dto.NewMCQSessionResponse(session), nil
	}
	if !session.IsOpen() {
		return dto.MCQSessionResponse{}, ErrSessionClosed
	}

	endTime := s.now()
	session.Status = models.MCQSessionAbandoned
	session.EndTime = &endTime

	if err := s.sessions.Update(ctx, &session); err != nil {
		return dto.MCQSessionResponse{}, err
	}

	observability.MCQSessions().WithLabelValues(models.MCQSessionAbandoned).Inc()
	return dto.NewMCQSessionResponse(session), nil
}

func (s *mcqService) GetSession(ctx context.Context, sessionID, userID string) (dto.MCQSessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID, userID)
	if err != nil {
		return dto.MCQSessionResponse{}, err
	}
	return dto.NewMCQSessionResponse(session), nil
}

func (s *mcqService) ListSessions(ctx context.Context, userID, courseID string) ([]dto.MCQSessionResponse, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewMCQSessionResponseSlice(sessions), nil
}

func (s *mcqService) Result(ctx context.Context, sessionID, userID string) (dto.MCQResultResponse, error) {
	session, err := s.loadSession(ctx, sessionID, userID)
	if err != nil {
		return dto.MCQResultResponse{}, err
	}
	if session.Status != models.MCQSessionCompleted {
		return dto.MCQResultResponse{}, ErrSessionClosed
	}

	questions, err := s.questions.GetByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return dto.MCQResultResponse{}, err
	}
	attempts, err := s.attempts.ListBySession(ctx, session.ID)
	if err != nil {
		return dto.MCQResultResponse{}, err
	}

	questionByID := make(map[string]models.MCQQuestion, len(questions))
	for _, question := range questions {
		questionByID[question.ID] = question
	}
	attemptByQuestion := make(map[string]models.MCQAttempt, len(attempts))
	for _, attempt := range attempts {
		attemptByQuestion[attempt.QuestionID] = attempt
	}

	items := make([]dto.MCQResultItem, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		question, ok := questionByID[id]
		if !ok {
			continue
		}
		item := dto.MCQResultItem{
			QuestionID:    question.ID,
			Question:      question.Question,
			Options:       append([]string(nil), question.Options...),
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
		}
		if attempt, answered := attemptByQuestion[id]; answered {
			selected := attempt.SelectedAnswer
			item.SelectedAnswer = &selected
			item.IsCorrect = attempt.IsCorrect
		}
		items = append(items, item)
	}

	return dto.MCQResultResponse{Session: dto.NewMCQSessionResponse(session), Items: items}, nil
}

// loadSession fetches a session and enforces ownership when userID is set.
func (s *mcqService) loadSession(ctx context.Context, sessionID, userID string) (models.MCQSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MCQSession{}, ErrSessionNotFound
		}
		return models.MCQSession{}, err
	}
	if userID != "" && session.UserID != userID {
		return models.MCQSession{}, ErrSessionForbidden
	}
	return session, nil
}

func newQuestionModel(req dto.MCQQuestionCreateRequest) models.MCQQuestion {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return models.MCQQuestion{
		ID:            id,
		CourseID:      strings.TrimSpace(req.CourseID),
		Question:      strings.TrimSpace(req.Question),
		Options:       datatypes.JSONSlice[string](append([]string(nil), req.Options...)),
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    req.Difficulty,
		Topic:         strings.TrimSpace(req.Topic),
		Explanation:   strings.TrimSpace(req.Explanation),
	}
}

// scorePercentage returns 0 for an empty session instead of dividing by zero.
func scorePercentage(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(total) / float64(max) * 100
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
