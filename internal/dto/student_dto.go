package dto

import "time"

// TaskProgressSummary aggregates a learner's task statistics.
type TaskProgressSummary struct {
	TotalTasks   int     `json:"total_tasks"`
	Submitted    int     `json:"submitted"`
	Reviewed     int     `json:"reviewed"`
	Pending      int     `json:"pending"`
	Late         int     `json:"late"`
	Overdue      int     `json:"overdue"`
	AverageScore float64 `json:"average_score"`
}

// QuizProgressSummary aggregates a learner's quiz statistics.
type QuizProgressSummary struct {
	Started           int     `json:"started"`
	Completed         int     `json:"completed"`
	AveragePercentage float64 `json:"average_percentage"`
	BestPercentage    float64 `json:"best_percentage"`
}

// UpcomingTask lists an unsubmitted task on the dashboard.
type UpcomingTask struct {
	TaskID  string    `json:"task_id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
	Overdue bool      `json:"overdue"`
}

// StudentDashboardResponse is returned by the learner dashboard endpoint.
type StudentDashboardResponse struct {
	Tasks             TaskProgressSummary      `json:"tasks"`
	Quizzes           QuizProgressSummary      `json:"quizzes"`
	FeedbackGiven     int                      `json:"feedback_given"`
	Upcoming          []UpcomingTask           `json:"upcoming"`
	RecentSubmissions []TaskSubmissionResponse `json:"recent_submissions"`
	GeneratedAt       time.Time                `json:"generated_at"`
}
