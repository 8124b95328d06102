package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// FeedbackFilter narrows feedback queries.
type FeedbackFilter struct {
	CourseID string
	UserID   string
	Status   string
	Page     int
	PageSize int
}

// FeedbackRepository defines persistence operations for course reviews.
type FeedbackRepository interface {
	GetByID(ctx context.Context, id string) (models.Feedback, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (models.Feedback, error)
	// Upsert inserts the review or, when the (user, course) pair already exists, overwrites it in place.
	Upsert(ctx context.Context, feedback *models.Feedback) error
	Update(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, int64, error)
	ApprovedRatingCounts(ctx context.Context, courseID string) (map[int]int, error)
	CountByStatus(ctx context.Context) (map[models.FeedbackStatus]int64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository constructs the feedback repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).First(&feedback, "id = ?", id).Error; err != nil {
		return models.Feedback{}, err
	}
	return feedback, nil
}

func (r *feedbackRepository) GetByUserAndCourse(ctx context.Context, userID, courseID string) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&feedback).Error; err != nil {
		return models.Feedback{}, err
	}
	return feedback, nil
}

func (r *feedbackRepository) Upsert(ctx context.Context, feedback *models.Feedback) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"student_name", "rating", "review", "status", "is_approved",
			"admin_response", "admin_response_date", "moderated_by", "moderated_at",
			"created_at", "updated_at",
		}),
	}).Create(feedback).Error
	if err != nil {
		return err
	}

	// the conflict path keeps the original primary key
	stored, err := r.GetByUserAndCourse(ctx, feedback.UserID, feedback.CourseID)
	if err != nil {
		return err
	}
	*feedback = stored
	return nil
}

func (r *feedbackRepository) Update(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Save(feedback).Error
}

func (r *feedbackRepository) List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Feedback{})

	if filter.CourseID != "" {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var items []models.Feedback
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

type ratingCountRow struct {
	Rating int
	Total  int
}

func (r *feedbackRepository) ApprovedRatingCounts(ctx context.Context, courseID string) (map[int]int, error) {
	var rows []ratingCountRow
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS total").
		Where("course_id = ? AND is_approved = ?", courseID, true).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Total
	}
	return counts, nil
}

type statusCountRow struct {
	Status string
	Total  int64
}

func (r *feedbackRepository) CountByStatus(ctx context.Context) (map[models.FeedbackStatus]int64, error) {
	var rows []statusCountRow
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.FeedbackStatus]int64, len(rows))
	for _, row := range rows {
		counts[models.FeedbackStatus(row.Status)] = row.Total
	}
	return counts, nil
}
