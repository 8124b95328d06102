package dto

import (
	"time"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// CourseUpsertRequest describes a catalog entry.
type CourseUpsertRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	Category    string `json:"category" validate:"omitempty,max=64"`
}

// CourseResponse serializes a course together with its rating summary.
type CourseResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Rating      CourseRatingResponse `json:"rating"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewCourseResponse converts a course model and its rating into a DTO.
func NewCourseResponse(model models.Course, rating CourseRatingResponse) CourseResponse {
	if rating.CourseID == "" {
		rating.CourseID = model.ID
	}
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Category:    model.Category,
		Rating:      rating,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
