package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	feedbackSubmissions   *prometheus.CounterVec
	feedbackModerations   *prometheus.CounterVec
	ratingRecomputes      *prometheus.CounterVec
	mcqSessionsTotal      *prometheus.CounterVec
	mcqScorePercentage    prometheus.Histogram
	taskSubmissionsTotal  *prometheus.CounterVec
	taskReviewsTotal      *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	notificationListeners prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursehub_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		feedbackSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_feedback_submissions_total",
			Help: "Feedback submissions partitioned by first submission or resubmission.",
		}, []string{"kind"})

		feedbackModerations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_feedback_moderations_total",
			Help: "Moderation actions applied to feedback.",
		}, []string{"action"})

		ratingRecomputes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_rating_recomputes_total",
			Help: "Course rating recomputations partitioned by outcome.",
		}, []string{"result"})

		mcqSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_mcq_sessions_total",
			Help: "Quiz session transitions partitioned by resulting status.",
		}, []string{"status"})

		mcqScorePercentage = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursehub_mcq_score_percentage",
			Help:    "Distribution of completed quiz percentages.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		})

		taskSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_task_submissions_total",
			Help: "Task submissions partitioned by lateness.",
		}, []string{"late"})

		taskReviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_task_reviews_total",
			Help: "Task submission reviews partitioned by resulting status.",
		}, []string{"status"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursehub_notifications_published_total",
			Help: "Notifications delivered to subscribers partitioned by type.",
		}, []string{"type"})

		notificationListeners = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coursehub_notification_listeners_active",
			Help: "Number of live notification websocket listeners.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			feedbackSubmissions, feedbackModerations, ratingRecomputes,
			mcqSessionsTotal, mcqScorePercentage,
			taskSubmissionsTotal, taskReviewsTotal,
			notificationsTotal, notificationListeners,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// FeedbackSubmissions counts reviews by kind ("new" or "resubmission").
func FeedbackSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackSubmissions
}

// FeedbackModerations counts approve/reject/respond actions.
func FeedbackModerations() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackModerations
}

// RatingRecomputes counts aggregate recomputations.
func RatingRecomputes() *prometheus.CounterVec {
	RegisterMetrics()
	return ratingRecomputes
}

// MCQSessions counts quiz session transitions.
func MCQSessions() *prometheus.CounterVec {
	RegisterMetrics()
	return mcqSessionsTotal
}

// MCQScorePercentage observes completed quiz scores.
func MCQScorePercentage() prometheus.Histogram {
	RegisterMetrics()
	return mcqScorePercentage
}

// TaskSubmissions counts task submissions.
func TaskSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return taskSubmissionsTotal
}

// TaskReviews counts submission reviews.
func TaskReviews() *prometheus.CounterVec {
	RegisterMetrics()
	return taskReviewsTotal
}

// NotificationsPublishedTotal counts notifications fanned out to listeners.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// NotificationListenersActive tracks open websocket listeners.
func NotificationListenersActive() prometheus.Gauge {
	RegisterMetrics()
	return notificationListeners
}
