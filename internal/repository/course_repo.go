package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// CourseRepository defines persistence operations for the course catalog.
type CourseRepository interface {
	List(ctx context.Context, category string) ([]models.Course, error)
	GetByID(ctx context.Context, id string) (models.Course, error)
	UpsertBatch(ctx context.Context, items []models.Course) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, category string) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []models.Course
	if err := query.Order("title ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) UpsertBatch(ctx context.Context, items []models.Course) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "category", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}
