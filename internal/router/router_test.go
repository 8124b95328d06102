package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/coursehub-api/internal/config"
	"github.com/noah-isme/coursehub-api/internal/handler"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/repository"
	"github.com/noah-isme/coursehub-api/internal/router"
	"github.com/noah-isme/coursehub-api/internal/service"
)

const jwtSecret = "router-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	validate := validator.New(validator.WithRequiredStructEnabled())
	log := zerolog.New(io.Discard)

	courseRepo := repository.NewCourseRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	questionRepo := repository.NewMCQQuestionRepository(db)
	sessionRepo := repository.NewMCQSessionRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewTaskSubmissionRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), log)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, log)
	ratings := service.NewRatingService(feedbackRepo, repository.NewCourseRatingRepository(db), nil, 0, log)
	feedback := service.NewFeedbackService(feedbackRepo, courseRepo, ratings, activity, notifications, validate, log)
	mcq := service.NewMCQService(questionRepo, sessionRepo, repository.NewMCQAttemptRepository(db), validate, log, service.MCQConfig{})
	tasks := service.NewTaskService(taskRepo, submissionRepo, nil, activity, notifications, validate, log)
	dashboard := service.NewStudentDashboardService(taskRepo, submissionRepo, sessionRepo, feedbackRepo, nil, 0, log)
	seeds, err := service.NewSeedService(courseRepo, questionRepo, taskRepo, validate, true, "seed-secret", log)
	require.NoError(t, err)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &log})
	router.Register(app, config.Config{AppName: "CourseHub Test", JWTSecret: jwtSecret}, router.Dependencies{
		CourseHandler:           handler.NewCourseHandler(service.NewCourseService(courseRepo, ratings, log), ratings, feedback, log),
		AdminFeedbackHandler:    handler.NewAdminFeedbackHandler(feedback, ratings, log),
		MCQHandler:              handler.NewMCQHandler(mcq, log),
		TaskHandler:             handler.NewTaskHandler(tasks, log),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboard, log),
		NotificationHandler:     handler.NewNotificationHandler(notifications, log, time.Second),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activity, log),
		SeedHandler:             handler.NewSeedHandler(seeds, log),
		HealthProbes:            probes,
		JWTMiddleware:           middleware.JWTProtected(jwtSecret),
	})

	return app, db
}

func tokenFor(t *testing.T, subject, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"name": strings.ToUpper(subject),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestFeedbackModerationFlow(t *testing.T) {
	app, db := setupApp(t)
	require.NoError(t, db.Create(&models.Course{ID: "powerbi", Title: "Power BI", Category: "data"}).Error)

	student := tokenFor(t, "learner-1", "student")
	admin := tokenFor(t, "admin-1", "admin")

	status, _ := call(t, app, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, env := call(t, app, http.MethodPost, "/api/v1/courses/powerbi/feedback", student, map[string]interface{}{
		"rating": 4,
		"review": "Dashboards finally make sense to me.",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var submitted struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		StudentName string `json:"student_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	require.Equal(t, "pending", submitted.Status)
	require.Equal(t, "LEARNER-1", submitted.StudentName)

	status, _ = call(t, app, http.MethodPost, "/api/admin/feedback/"+submitted.ID+"/approve", student, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPost, "/api/admin/feedback/"+submitted.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, app, http.MethodGet, "/api/v1/courses/powerbi/rating", student, nil)
	require.Equal(t, http.StatusOK, status)
	var rating struct {
		AverageRating float64        `json:"average_rating"`
		TotalReviews  int            `json:"total_reviews"`
		Distribution  map[string]int `json:"rating_distribution"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rating))
	require.Equal(t, 4.0, rating.AverageRating)
	require.Equal(t, 1, rating.TotalReviews)
	require.Equal(t, 1, rating.Distribution["4"])

	status, env = call(t, app, http.MethodGet, "/api/v1/notifications", student, nil)
	require.Equal(t, http.StatusOK, status)
	var inbox struct {
		Items  []map[string]interface{} `json:"items"`
		Unread int64                    `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inbox))
	require.Equal(t, int64(1), inbox.Unread)

	status, env = call(t, app, http.MethodGet, "/api/admin/activities?action=feedback.approved", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = call(t, app, http.MethodPost, "/api/admin/feedback/missing/approve", admin, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, env = call(t, app, http.MethodPost, "/api/v1/courses/powerbi/feedback", student, map[string]interface{}{"rating": 9, "review": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	require.False(t, env.Success)
}

func TestQuizFlow(t *testing.T) {
	app, _ := setupApp(t)
	admin := tokenFor(t, "teacher-1", "teacher")
	student := tokenFor(t, "learner-1", "student")

	ids := make([]string, 0, 2)
	for i, correct := range []int{2, 0} {
		status, env := call(t, app, http.MethodPost, "/api/admin/questions", admin, map[string]interface{}{
			"id":             fmt.Sprintf("sql-q%d", i+1),
			"course_id":      "sql",
			"question":       "Pick the right clause",
			"options":        []string{"A", "B", "C", "D"},
			"correct_answer": correct,
			"difficulty":     "medium",
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
		ids = append(ids, fmt.Sprintf("sql-q%d", i+1))
	}

	status, env := call(t, app, http.MethodGet, "/api/v1/courses/sql/questions", student, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NotContains(t, string(env.Data), "correct_answer")

	status, env = call(t, app, http.MethodPost, "/api/v1/mcq/sessions", student, map[string]interface{}{"course_id": "sql", "question_ids": ids})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	status, _ = call(t, app, http.MethodPost, "/api/v1/mcq/sessions/"+session.ID+"/answers", student, map[string]interface{}{"question_id": ids[0], "selected_answer": 2})
	require.Equal(t, http.StatusOK, status)

	other := tokenFor(t, "learner-2", "student")
	status, _ = call(t, app, http.MethodPost, "/api/v1/mcq/sessions/"+session.ID+"/answers", other, map[string]interface{}{"question_id": ids[1], "selected_answer": 0})
	require.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPost, "/api/v1/mcq/sessions/"+session.ID+"/complete", student, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var completed struct {
		TotalScore int     `json:"total_score"`
		Percentage float64 `json:"percentage"`
		Status     string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	require.Equal(t, 1, completed.TotalScore)
	require.InDelta(t, 50.0, completed.Percentage, 0.001)
	require.Equal(t, models.MCQSessionCompleted, completed.Status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/mcq/sessions/"+session.ID+"/answers", student, map[string]interface{}{"question_id": ids[1], "selected_answer": 0})
	require.Equal(t, http.StatusConflict, status)

	status, env = call(t, app, http.MethodGet, "/api/v1/mcq/sessions/"+session.ID+"/result", student, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
}

func TestTaskSubmissionAndReviewFlow(t *testing.T) {
	app, _ := setupApp(t)
	admin := tokenFor(t, "teacher-1", "teacher")
	student := tokenFor(t, "learner-1", "student")

	status, env := call(t, app, http.MethodPost, "/api/admin/tasks", admin, map[string]interface{}{
		"id":        "day-1",
		"title":     "Explain joins",
		"type":      "text",
		"min_words": 3,
		"points":    20,
		"due_date":  time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, _ = call(t, app, http.MethodPost, "/api/v1/tasks/day-1/submissions", student, map[string]interface{}{"text": "too short"})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, app, http.MethodPost, "/api/v1/tasks/day-1/submissions", student, map[string]interface{}{"text": "An inner join keeps matching rows only."})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var submission struct {
		ID     string `json:"id"`
		IsLate bool   `json:"is_late"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submission))
	require.True(t, submission.IsLate)

	status, _ = call(t, app, http.MethodPatch, "/api/admin/submissions/"+submission.ID+"/review", admin, map[string]interface{}{"score": 25, "status": "reviewed"})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, app, http.MethodPatch, "/api/admin/submissions/"+submission.ID+"/review", admin, map[string]interface{}{"score": 18, "status": "approved", "feedback": "Nice"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, app, http.MethodGet, "/api/v1/student/dashboard", student, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var dashboard struct {
		Tasks struct {
			Submitted    int     `json:"submitted"`
			Reviewed     int     `json:"reviewed"`
			Late         int     `json:"late"`
			AverageScore float64 `json:"average_score"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	require.Equal(t, 1, dashboard.Tasks.Submitted)
	require.Equal(t, 1, dashboard.Tasks.Reviewed)
	require.Equal(t, 1, dashboard.Tasks.Late)
	require.InDelta(t, 18.0, dashboard.Tasks.AverageScore, 0.001)
}

func TestSeedAndHealthBypassJWT(t *testing.T) {
	app, _ := setupApp(t)

	status, env := call(t, app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)

	payload := map[string]interface{}{
		"courses": []map[string]interface{}{{"id": "excel", "title": "Excel"}},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/seed", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.HeaderSeedToken, "wrong")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/seed", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.HeaderSeedToken, "seed-secret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, env = call(t, app, http.MethodGet, "/api/v1/courses/excel", tokenFor(t, "learner-1", "student"), nil)
	require.Equal(t, http.StatusOK, status, env.Message)
}
