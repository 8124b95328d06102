package dto

import (
	"time"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// TaskCreateRequest defines a new daily task.
type TaskCreateRequest struct {
	ID               string    `json:"id" validate:"omitempty,max=64"`
	CourseID         string    `json:"course_id" validate:"omitempty,max=64"`
	Title            string    `json:"title" validate:"required,max=255"`
	Description      string    `json:"description" validate:"omitempty"`
	Type             string    `json:"type" validate:"required,oneof=text file code mixed"`
	MinWords         int       `json:"min_words" validate:"min=0"`
	MaxWords         int       `json:"max_words" validate:"min=0"`
	AllowedFileTypes []string  `json:"allowed_file_types" validate:"omitempty,dive,required"`
	MaxFileSizeMB    int       `json:"max_file_size_mb" validate:"min=0"`
	Points           float64   `json:"points" validate:"gt=0"`
	DueDate          time.Time `json:"due_date" validate:"required"`
}

// TaskSubmitRequest carries the non-file content of a submission.
type TaskSubmitRequest struct {
	Text     string `json:"text" form:"text"`
	Code     string `json:"code" form:"code"`
	Language string `json:"language" form:"language" validate:"omitempty,max=32"`
}

// TaskReviewRequest is used by admins to grade a submission.
type TaskReviewRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,gte=0"`
	Feedback string   `json:"feedback" validate:"omitempty,max=5000"`
	Status   string   `json:"status" validate:"required,oneof=reviewed approved rejected revision_required"`
}

// TaskSubmissionFilter describes query string filters for listing submissions.
type TaskSubmissionFilter struct {
	TaskID string `query:"task_id" validate:"omitempty,max=64"`
	UserID string `query:"user_id" validate:"omitempty,max=64"`
	Status string `query:"status" validate:"omitempty,oneof=submitted reviewed approved rejected revision_required"`
}

// TaskResponse serializes a task definition.
type TaskResponse struct {
	ID           string                  `json:"id"`
	CourseID     string                  `json:"course_id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Type         string                  `json:"type"`
	Requirements models.TaskRequirements `json:"requirements"`
	Points       float64                 `json:"points"`
	DueDate      time.Time               `json:"due_date"`
	CreatedAt    time.Time               `json:"created_at"`
}

// TaskLite summarizes a task in submission responses.
type TaskLite struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// TaskSubmissionResponse serializes a submission.
type TaskSubmissionResponse struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	UserID      string     `json:"user_id"`
	Text        string     `json:"text,omitempty"`
	Code        string     `json:"code,omitempty"`
	Language    string     `json:"language,omitempty"`
	FileURL     string     `json:"file_url,omitempty"`
	FileName    string     `json:"file_name,omitempty"`
	FileSize    int64      `json:"file_size,omitempty"`
	FileType    string     `json:"file_type,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	IsLate      bool       `json:"is_late"`
	Status      string     `json:"status"`
	Score       *float64   `json:"score"`
	MaxScore    float64    `json:"max_score"`
	Feedback    string     `json:"feedback"`
	ReviewedBy  *string    `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	Task        TaskLite   `json:"task"`
}

// NewTaskResponse converts a task model into a DTO.
func NewTaskResponse(model models.DailyTask) TaskResponse {
	return TaskResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		Title:        model.Title,
		Description:  model.Description,
		Type:         model.Type,
		Requirements: model.Requirements.Data(),
		Points:       model.Points,
		DueDate:      model.DueDate,
		CreatedAt:    model.CreatedAt,
	}
}

// NewTaskResponseSlice converts task models into DTOs.
func NewTaskResponseSlice(items []models.DailyTask) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewTaskResponse(item))
	}
	return out
}

// NewTaskSubmissionResponse converts a submission model into a DTO.
func NewTaskSubmissionResponse(model models.TaskSubmission) TaskSubmissionResponse {
	response := TaskSubmissionResponse{
		ID:          model.ID,
		TaskID:      model.TaskID,
		UserID:      model.UserID,
		Text:        model.Text,
		Code:        model.Code,
		Language:    model.Language,
		FileURL:     model.FileURL,
		FileName:    model.FileName,
		FileSize:    model.FileSize,
		FileType:    model.FileType,
		SubmittedAt: model.SubmittedAt,
		IsLate:      model.IsLate,
		Status:      model.Status,
		Score:       model.Score,
		MaxScore:    model.MaxScore,
		Feedback:    model.Feedback,
		ReviewedBy:  model.ReviewedBy,
		ReviewedAt:  model.ReviewedAt,
	}

	if model.Task.ID != "" {
		response.Task = TaskLite{
			ID:      model.Task.ID,
			Title:   model.Task.Title,
			DueDate: model.Task.DueDate,
		}
	}

	return response
}

// NewTaskSubmissionResponseSlice converts submission models into DTOs.
func NewTaskSubmissionResponseSlice(items []models.TaskSubmission) []TaskSubmissionResponse {
	out := make([]TaskSubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewTaskSubmissionResponse(item))
	}
	return out
}
