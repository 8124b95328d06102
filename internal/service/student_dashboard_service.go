package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

const dashboardListLimit = 5

// StudentDashboardService produces aggregated learner progress.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, userID string) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	tasks       repository.TaskRepository
	submissions repository.TaskSubmissionRepository
	sessions    repository.MCQSessionRepository
	feedback    repository.FeedbackRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator. The cache is optional.
func NewStudentDashboardService(tasks repository.TaskRepository, submissions repository.TaskSubmissionRepository, sessions repository.MCQSessionRepository, feedback repository.FeedbackRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		tasks:       tasks,
		submissions: submissions,
		sessions:    sessions,
		feedback:    feedback,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, userID string) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%s", userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("user_id", userID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	tasks, err := s.tasks.List(ctx, "")
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	submissions, err := s.submissions.List(ctx, repository.TaskSubmissionFilter{UserID: userID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, "")
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	_, feedbackGiven, err := s.feedback.List(ctx, repository.FeedbackFilter{UserID: userID, PageSize: 1})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(tasks, submissions, sessions)
	response.FeedbackGiven = int(feedbackGiven)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// buildResponse expects submissions newest first, so the first one seen per task is the latest.
func (s *studentDashboardService) buildResponse(tasks []models.DailyTask, submissions []models.TaskSubmission, sessions []models.MCQSession) dto.StudentDashboardResponse {
	now := s.now()
	latest := make(map[string]models.TaskSubmission, len(submissions))
	for _, submission := range submissions {
		if _, exists := latest[submission.TaskID]; !exists {
			latest[submission.TaskID] = submission
		}
	}

	summary := dto.TaskProgressSummary{}
	upcoming := make([]dto.UpcomingTask, 0, dashboardListLimit)
	var scoreTotal float64
	var scored int

	for _, task := range tasks {
		summary.TotalTasks++
		submission, submitted := latest[task.ID]
		if !submitted {
			summary.Pending++
			overdue := task.IsPastDue(now)
			if overdue {
				summary.Overdue++
			}
			if len(upcoming) < dashboardListLimit {
				upcoming = append(upcoming, dto.UpcomingTask{
					TaskID:  task.ID,
					Title:   task.Title,
					DueDate: task.DueDate,
					Overdue: overdue,
				})
			}
			continue
		}

		summary.Submitted++
		if submission.IsLate {
			summary.Late++
		}
		if !submission.IsReviewed() {
			summary.Pending++
			continue
		}
		summary.Reviewed++
		if submission.Score != nil {
			scoreTotal += *submission.Score
			scored++
		}
	}
	if scored > 0 {
		summary.AverageScore = scoreTotal / float64(scored)
	}

	quizzes := dto.QuizProgressSummary{Started: len(sessions)}
	var percentageTotal float64
	for _, session := range sessions {
		if session.Status != models.MCQSessionCompleted {
			continue
		}
		quizzes.Completed++
		percentageTotal += session.Percentage
		if session.Percentage > quizzes.BestPercentage {
			quizzes.BestPercentage = session.Percentage
		}
	}
	if quizzes.Completed > 0 {
		quizzes.AveragePercentage = percentageTotal / float64(quizzes.Completed)
	}

	recent := submissions
	if len(recent) > dashboardListLimit {
		recent = recent[:dashboardListLimit]
	}

	return dto.StudentDashboardResponse{
		Tasks:             summary,
		Quizzes:           quizzes,
		Upcoming:          upcoming,
		RecentSubmissions: dto.NewTaskSubmissionResponseSlice(recent),
		GeneratedAt:       now.UTC(),
	}
}
