package dto

import (
	"strconv"
	"time"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// FeedbackSubmitRequest is the payload a learner sends to rate a course.
type FeedbackSubmitRequest struct {
	CourseID    string `json:"course_id" validate:"required,max=64"`
	StudentName string `json:"student_name" validate:"omitempty,max=255"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Review      string `json:"review" validate:"required,min=10,max=5000"`
}

// FeedbackRespondRequest carries an admin reply to a review.
type FeedbackRespondRequest struct {
	Response string `json:"response" validate:"required,min=1,max=2000"`
}

// FeedbackListRequest narrows admin review listings.
type FeedbackListRequest struct {
	CourseID string `query:"course_id" validate:"omitempty,max=64"`
	Status   string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// FeedbackResponse serializes a review.
type FeedbackResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	CourseID          string     `json:"course_id"`
	StudentName       string     `json:"student_name"`
	Rating            int        `json:"rating"`
	Review            string     `json:"review"`
	Status            string     `json:"status"`
	IsApproved        bool       `json:"is_approved"`
	AdminResponse     *string    `json:"admin_response"`
	AdminResponseDate *time.Time `json:"admin_response_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FeedbackListResponse wraps paginated reviews.
type FeedbackListResponse struct {
	Items      []FeedbackResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// FeedbackStatsResponse counts reviews per moderation state.
type FeedbackStatsResponse struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// CourseRatingResponse serializes the aggregate of approved reviews.
type CourseRatingResponse struct {
	CourseID           string         `json:"course_id"`
	AverageRating      float64        `json:"average_rating"`
	TotalReviews       int            `json:"total_reviews"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	UpdatedAt          *time.Time     `json:"updated_at"`
}

// NewFeedbackResponse converts a feedback model into a DTO.
func NewFeedbackResponse(model models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:                model.ID,
		UserID:            model.UserID,
		CourseID:          model.CourseID,
		StudentName:       model.StudentName,
		Rating:            model.Rating,
		Review:            model.Review,
		Status:            string(model.Status),
		IsApproved:        model.IsApproved,
		AdminResponse:     model.AdminResponse,
		AdminResponseDate: model.AdminResponseDate,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// NewFeedbackResponseSlice converts feedback models into DTOs.
func NewFeedbackResponseSlice(items []models.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewFeedbackResponse(item))
	}
	return out
}

// NewCourseRatingResponse converts a rating model into a DTO. Every star value is present in the distribution.
func NewCourseRatingResponse(model models.CourseRating) CourseRatingResponse {
	distribution := make(map[string]int, 5)
	for star, count := range model.Distribution() {
		distribution[strconv.Itoa(star)] = count
	}

	response := CourseRatingResponse{
		CourseID:           model.CourseID,
		AverageRating:      model.AverageRating,
		TotalReviews:       model.TotalReviews,
		RatingDistribution: distribution,
	}
	if !model.UpdatedAt.IsZero() {
		updated := model.UpdatedAt
		response.UpdatedAt = &updated
	}

	return response
}
