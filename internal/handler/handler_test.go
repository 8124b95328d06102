package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursehub-api/internal/config"
	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/handler"
	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/service"
)

const ratingContract = `{
  "type": "object",
  "required": ["success", "data", "message"],
  "properties": {
    "success": {"const": true},
    "data": {
      "type": "object",
      "required": ["course_id", "average_rating", "total_reviews", "rating_distribution"],
      "properties": {
        "course_id": {"type": "string"},
        "average_rating": {"type": "number", "minimum": 0, "maximum": 5},
        "total_reviews": {"type": "integer", "minimum": 0},
        "rating_distribution": {
          "type": "object",
          "required": ["1", "2", "3", "4", "5"],
          "additionalProperties": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

func nopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func withUser(userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals(middleware.LocalUserID, userID)
			c.Locals(middleware.LocalUserRole, role)
			c.Locals(middleware.LocalUserName, strings.ToUpper(userID))
		}
		return c.Next()
	}
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type stubSeedService struct {
	token    string
	received []byte
}

func (s *stubSeedService) Seed(_ context.Context, token string, raw []byte) (dto.SeedResult, error) {
	if token != s.token {
		return dto.SeedResult{}, service.ErrSeedUnauthorized
	}
	s.received = raw
	return dto.SeedResult{Courses: 2}, nil
}

func (s *stubSeedService) Import(_ context.Context, raw []byte) (dto.SeedResult, error) {
	s.received = raw
	return dto.SeedResult{}, nil
}

func TestSeedHandler(t *testing.T) {
	stub := &stubSeedService{token: "secret"}
	app := fiber.New()
	handler.NewSeedHandler(stub, nopLogger()).Register(app.Group("/seed"))

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/seed", nil)
		req.Header.Set(handler.HeaderSeedToken, "secret")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/seed", strings.NewReader(`{"courses":[]}`))
		req.Header.Set(handler.HeaderSeedToken, "nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/seed", strings.NewReader(`{"courses":[]}`))
		req.Header.Set(handler.HeaderSeedToken, "secret")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode(t, resp)
		require.Equal(t, true, body["success"])
		require.Equal(t, float64(2), body["data"].(map[string]interface{})["courses"])
		require.JSONEq(t, `{"courses":[]}`, string(stub.received))
	})
}

type stubDashboardService struct {
	calls []string
}

func (s *stubDashboardService) GetDashboard(_ context.Context, userID string) (dto.StudentDashboardResponse, error) {
	s.calls = append(s.calls, userID)
	return dto.StudentDashboardResponse{FeedbackGiven: 3}, nil
}

func TestStudentDashboardHandlerRequiresUser(t *testing.T) {
	stub := &stubDashboardService{}

	anonymous := fiber.New()
	anonymous.Use(withUser("", ""))
	handler.NewStudentDashboardHandler(stub, nopLogger()).Register(anonymous.Group("/student"))

	resp, err := anonymous.Test(httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, stub.calls)

	authed := fiber.New()
	authed.Use(withUser("learner-7", "student"))
	handler.NewStudentDashboardHandler(stub, nopLogger()).Register(authed.Group("/student"))

	resp, err = authed.Test(httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"learner-7"}, stub.calls)

	body := decode(t, resp)
	require.Equal(t, float64(3), body["data"].(map[string]interface{})["feedback_given"])
}

func TestHealthCheckReportsDegradedDependencies(t *testing.T) {
	cfg := config.Config{AppName: "CourseHub", AppEnv: "test"}

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
	}))
	app.Get("/degraded", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decode(t, resp)
	require.Equal(t, "service degraded", body["message"])
	data := body["data"].(map[string]interface{})
	require.Equal(t, "degraded", data["status"])
	require.Equal(t, map[string]interface{}{"database": "up", "redis": "down"}, data["dependencies"])
}

type stubCourseService struct{}

func (stubCourseService) List(context.Context, string) ([]dto.CourseResponse, error) {
	return nil, nil
}

func (stubCourseService) Get(_ context.Context, id string) (dto.CourseResponse, error) {
	return dto.CourseResponse{}, service.ErrCourseNotFound
}

type stubRatingService struct {
	ratings map[string]dto.CourseRatingResponse
}

func (s stubRatingService) Recompute(ctx context.Context, courseID string) (dto.CourseRatingResponse, error) {
	return s.Get(ctx, courseID)
}

func (s stubRatingService) Get(_ context.Context, courseID string) (dto.CourseRatingResponse, error) {
	if rating, ok := s.ratings[courseID]; ok {
		return rating, nil
	}
	return dto.CourseRatingResponse{}, service.ErrCourseNotFound
}

type stubFeedbackService struct {
	service.FeedbackService
	submitted []dto.FeedbackSubmitRequest
	actors    []service.ActivityActor
}

func (s *stubFeedbackService) Submit(_ context.Context, actor service.ActivityActor, req dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error) {
	s.submitted = append(s.submitted, req)
	s.actors = append(s.actors, actor)
	return dto.FeedbackResponse{ID: "fb-1", CourseID: req.CourseID, Rating: req.Rating, Status: "pending"}, nil
}

func TestCourseRatingMatchesContract(t *testing.T) {
	schema, err := jsonschema.CompileString("course_rating.json", ratingContract)
	require.NoError(t, err)

	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ratings := stubRatingService{ratings: map[string]dto.CourseRatingResponse{
		"powerbi": {
			CourseID:           "powerbi",
			AverageRating:      4.3,
			TotalReviews:       3,
			RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 2, "5": 1},
			UpdatedAt:          &updated,
		},
	}}

	app := fiber.New()
	app.Use(withUser("learner-1", "student"))
	handler.NewCourseHandler(stubCourseService{}, ratings, &stubFeedbackService{}, nopLogger()).Register(app.Group("/courses"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses/powerbi/rating", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NoError(t, schema.Validate(payload))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/courses/unknown/rating", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitFeedbackTakesCourseFromPath(t *testing.T) {
	feedback := &stubFeedbackService{}
	app := fiber.New()
	app.Use(withUser("learner-1", "student"))
	handler.NewCourseHandler(stubCourseService{}, stubRatingService{}, feedback, nopLogger()).Register(app.Group("/courses"))

	req := httptest.NewRequest(http.MethodPost, "/courses/sql/feedback", strings.NewReader(`{"course_id":"other","rating":5,"review":"Clear and well paced"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, feedback.submitted, 1)
	require.Equal(t, "sql", feedback.submitted[0].CourseID)
	require.Equal(t, "learner-1", feedback.actors[0].ID)
}
