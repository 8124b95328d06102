package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// CourseRatingRepository stores derived course rating aggregates.
type CourseRatingRepository interface {
	Get(ctx context.Context, courseID string) (models.CourseRating, error)
	Upsert(ctx context.Context, rating *models.CourseRating) error
	Delete(ctx context.Context, courseID string) error
}

type courseRatingRepository struct {
	db *gorm.DB
}

// NewCourseRatingRepository constructs the rating repository.
func NewCourseRatingRepository(db *gorm.DB) CourseRatingRepository {
	return &courseRatingRepository{db: db}
}

func (r *courseRatingRepository) Get(ctx context.Context, courseID string) (models.CourseRating, error) {
	var rating models.CourseRating
	if err := r.db.WithContext(ctx).First(&rating, "course_id = ?", courseID).Error; err != nil {
		return models.CourseRating{}, err
	}
	return rating, nil
}

func (r *courseRatingRepository) Upsert(ctx context.Context, rating *models.CourseRating) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"average_rating", "total_reviews",
			"stars_1", "stars_2", "stars_3", "stars_4", "stars_5",
			"updated_at",
		}),
	}).Create(rating).Error
}

func (r *courseRatingRepository) Delete(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Delete(&models.CourseRating{}, "course_id = ?", courseID).Error
}
