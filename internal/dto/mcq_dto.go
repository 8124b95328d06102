package dto

import (
	"time"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// MCQQuestionCreateRequest defines a new multiple choice question.
type MCQQuestionCreateRequest struct {
	ID            string   `json:"id" validate:"omitempty,max=64"`
	CourseID      string   `json:"course_id" validate:"required,max=64"`
	Question      string   `json:"question" validate:"required,min=3"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
	Difficulty    string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Topic         string   `json:"topic" validate:"omitempty,max=128"`
	Explanation   string   `json:"explanation" validate:"omitempty"`
}

// MCQQuestionFilter narrows question listings.
type MCQQuestionFilter struct {
	CourseID   string `query:"course_id" validate:"required,max=64"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Topic      string `query:"topic" validate:"omitempty,max=128"`
}

// MCQStartRequest starts a quiz session.
type MCQStartRequest struct {
	CourseID    string   `json:"course_id" validate:"required,max=64"`
	QuestionIDs []string `json:"question_ids" validate:"omitempty,dive,required"`
}

// MCQAnswerRequest records an answer inside a session.
type MCQAnswerRequest struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedAnswer int    `json:"selected_answer" validate:"min=0,max=3"`
	TimeSpent      int    `json:"time_spent" validate:"min=0"`
}

// MCQQuestionResponse hides the correct answer from learners.
type MCQQuestionResponse struct {
	ID         string   `json:"id"`
	CourseID   string   `json:"course_id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	Topic      string   `json:"topic"`
}

// MCQAttemptResponse serializes a recorded answer.
type MCQAttemptResponse struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer int       `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Score          int       `json:"score"`
	TimeSpent      int       `json:"time_spent"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// MCQSessionResponse serializes a quiz session.
type MCQSessionResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	QuestionIDs []string   `json:"question_ids"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	TotalScore  int        `json:"total_score"`
	MaxScore    int        `json:"max_score"`
	Percentage  float64    `json:"percentage"`
	Status      string     `json:"status"`
	TimeLimit   int        `json:"time_limit"`
}

// MCQResultItem pairs an answered question with its solution.
type MCQResultItem struct {
	QuestionID     string   `json:"question_id"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  int      `json:"correct_answer"`
	SelectedAnswer *int     `json:"selected_answer"`
	IsCorrect      bool     `json:"is_correct"`
	Explanation    string   `json:"explanation"`
}

// MCQResultResponse is the post-completion summary of a session.
type MCQResultResponse struct {
	Session MCQSessionResponse `json:"session"`
	Items   []MCQResultItem    `json:"items"`
}

// NewMCQQuestionResponse converts a question into its learner-facing DTO.
func NewMCQQuestionResponse(model models.MCQQuestion) MCQQuestionResponse {
	return MCQQuestionResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		Question:   model.Question,
		Options:    append([]string(nil), model.Options...),
		Difficulty: model.Difficulty,
		Topic:      model.Topic,
	}
}

// NewMCQQuestionResponseSlice converts question models into DTOs.
func NewMCQQuestionResponseSlice(items []models.MCQQuestion) []MCQQuestionResponse {
	out := make([]MCQQuestionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewMCQQuestionResponse(item))
	}
	return out
}

// NewMCQAttemptResponse converts an attempt model into a DTO.
func NewMCQAttemptResponse(model models.MCQAttempt) MCQAttemptResponse {
	return MCQAttemptResponse{
		ID:             model.ID,
		SessionID:      model.SessionID,
		QuestionID:     model.QuestionID,
		SelectedAnswer: model.SelectedAnswer,
		IsCorrect:      model.IsCorrect,
		Score:          model.Score,
		TimeSpent:      model.TimeSpent,
		AttemptedAt:    model.AttemptedAt,
	}
}

// NewMCQSessionResponse converts a session model into a DTO.
func NewMCQSessionResponse(model models.MCQSession) MCQSessionResponse {
	return MCQSessionResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		CourseID:    model.CourseID,
		QuestionIDs: append([]string(nil), model.QuestionIDs...),
		StartTime:   model.StartTime,
		EndTime:     model.EndTime,
		TotalScore:  model.TotalScore,
		MaxScore:    model.MaxScore,
		Percentage:  model.Percentage,
		Status:      model.Status,
		TimeLimit:   model.TimeLimit,
	}
}

// NewMCQSessionResponseSlice converts session models into DTOs.
func NewMCQSessionResponseSlice(items []models.MCQSession) []MCQSessionResponse {
	out := make([]MCQSessionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewMCQSessionResponse(item))
	}
	return out
}
