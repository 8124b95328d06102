package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// TaskSubmissionFilter allows narrowing submission queries.
type TaskSubmissionFilter struct {
	TaskID string
	UserID string
	Status string
}

// TaskRepository defines persistence operations for daily tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.DailyTask) error
	UpsertBatch(ctx context.Context, items []models.DailyTask) (int64, error)
	GetByID(ctx context.Context, id string) (models.DailyTask, error)
	List(ctx context.Context, courseID string) ([]models.DailyTask, error)
}

// TaskSubmissionRepository defines data operations for task submissions.
type TaskSubmissionRepository interface {
	Create(ctx context.Context, submission *models.TaskSubmission) error
	GetByID(ctx context.Context, id string) (models.TaskSubmission, error)
	Update(ctx context.Context, submission *models.TaskSubmission) error
	List(ctx context.Context, filter TaskSubmissionFilter) ([]models.TaskSubmission, error)
}

type taskRepository struct {
	db *gorm.DB
}

type taskSubmissionRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates a GORM-backed repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// NewTaskSubmissionRepository instantiates the repository.
func NewTaskSubmissionRepository(db *gorm.DB) TaskSubmissionRepository {
	return &taskSubmissionRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.DailyTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) UpsertBatch(ctx context.Context, items []models.DailyTask) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"course_id", "title", "description", "type", "requirements", "points", "due_date", "updated_at",
		}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (models.DailyTask, error) {
	var task models.DailyTask
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return models.DailyTask{}, err
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, courseID string) ([]models.DailyTask, error) {
	query := r.db.WithContext(ctx).Model(&models.DailyTask{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var tasks []models.DailyTask
	if err := query.Order("due_date ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskSubmissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TaskSubmission{}).Preload("Task")
}

func (r *taskSubmissionRepository) Create(ctx context.Context, submission *models.TaskSubmission) error {
	return r.db.WithContext(ctx).Omit("Task").Create(submission).Error
}

func (r *taskSubmissionRepository) GetByID(ctx context.Context, id string) (models.TaskSubmission, error) {
	var submission models.TaskSubmission
	if err := r.baseQuery(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.TaskSubmission{}, err
	}
	return submission, nil
}

func (r *taskSubmissionRepository) Update(ctx context.Context, submission *models.TaskSubmission) error {
	return r.db.WithContext(ctx).Omit("Task").Save(submission).Error
}

func (r *taskSubmissionRepository) List(ctx context.Context, filter TaskSubmissionFilter) ([]models.TaskSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.TaskID != "" {
		query = query.Where("task_id = ?", filter.TaskID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var submissions []models.TaskSubmission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
