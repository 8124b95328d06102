package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCourseHubCollectors(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	FeedbackModerations().WithLabelValues("approved").Inc()
	RatingRecomputes().WithLabelValues("updated").Inc()
	MCQScorePercentage().Observe(60)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	require.Contains(t, text, `coursehub_feedback_moderations_total{action="approved"}`)
	require.Contains(t, text, `coursehub_rating_recomputes_total{result="updated"}`)
	require.Contains(t, text, "coursehub_mcq_score_percentage_bucket")
	require.Contains(t, text, "go_goroutines")
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		RegisterMetrics()
		RegisterMetrics()
	})
	require.NotNil(t, APIRequests())
	require.NotNil(t, NotificationListenersActive())
}
