package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// MCQQuestionFilter narrows question listings.
type MCQQuestionFilter struct {
	CourseID   string
	Difficulty string
	Topic      string
}

// MCQQuestionRepository defines persistence operations for the question bank.
type MCQQuestionRepository interface {
	Create(ctx context.Context, question *models.MCQQuestion) error
	UpsertBatch(ctx context.Context, items []models.MCQQuestion) (int64, error)
	GetByID(ctx context.Context, id string) (models.MCQQuestion, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.MCQQuestion, error)
	List(ctx context.Context, filter MCQQuestionFilter) ([]models.MCQQuestion, error)
}

// MCQSessionRepository defines persistence operations for quiz sessions.
type MCQSessionRepository interface {
	Create(ctx context.Context, session *models.MCQSession) error
	GetByID(ctx context.Context, id string) (models.MCQSession, error)
	Update(ctx context.Context, session *models.MCQSession) error
	ListByUser(ctx context.Context, userID, courseID string) ([]models.MCQSession, error)
}

// MCQAttemptRepository defines persistence operations for answered questions.
type MCQAttemptRepository interface {
	// Save records the attempt, replacing any earlier answer to the same question in the same session.
	Save(ctx context.Context, attempt *models.MCQAttempt) error
	ListBySession(ctx context.Context, sessionID string) ([]models.MCQAttempt, error)
	SumScore(ctx context.Context, sessionID string) (int, error)
}

type mcqQuestionRepository struct {
	db *gorm.DB
}

type mcqSessionRepository struct {
	db *gorm.DB
}

type mcqAttemptRepository struct {
	db *gorm.DB
}

// NewMCQQuestionRepository constructs the question repository.
func NewMCQQuestionRepository(db *gorm.DB) MCQQuestionRepository {
	return &mcqQuestionRepository{db: db}
}

// NewMCQSessionRepository constructs the session repository.
func NewMCQSessionRepository(db *gorm.DB) MCQSessionRepository {
	return &mcqSessionRepository{db: db}
}

// NewMCQAttemptRepository constructs the attempt repository.
func NewMCQAttemptRepository(db *gorm.DB) MCQAttemptRepository {
	return &mcqAttemptRepository{db: db}
}

func (r *mcqQuestionRepository) Create(ctx context.Context, question *models.MCQQuestion) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *mcqQuestionRepository) UpsertBatch(ctx context.Context, items []models.MCQQuestion) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"course_id", "question", "options", "correct_answer", "difficulty", "topic", "explanation", "updated_at",
		}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}

func (r *mcqQuestionRepository) GetByID(ctx context.Context, id string) (models.MCQQuestion, error) {
	var question models.MCQQuestion
	if err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return models.MCQQuestion{}, err
	}
	return question, nil
}

func (r *mcqQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]models.MCQQuestion, error) {
	if len(ids) == 0 {
		return []models.MCQQuestion{}, nil
	}

	var questions []models.MCQQuestion
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *mcqQuestionRepository) List(ctx context.Context, filter MCQQuestionFilter) ([]models.MCQQuestion, error) {
	query := r.db.WithContext(ctx).Model(&models.MCQQuestion{})

	if filter.CourseID != "" {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Topic != "" {
		query = query.Where("topic = ?", filter.Topic)
	}

	var questions []models.MCQQuestion
	if err := query.Order("created_at ASC").Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *mcqSessionRepository) Create(ctx context.Context, session *models.MCQSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *mcqSessionRepository) GetByID(ctx context.Context, id string) (models.MCQSession, error) {
	var session models.MCQSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return models.MCQSession{}, err
	}
	return session, nil
}

func (r *mcqSessionRepository) Update(ctx context.Context, session *models.MCQSession) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(session).Error
}

func (r *mcqSessionRepository) ListByUser(ctx context.Context, userID, courseID string) ([]models.MCQSession, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var sessions []models.MCQSession
	if err := query.Order("start_time DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mcqAttemptRepository) Save(ctx context.Context, attempt *models.MCQAttempt) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "score", "time_spent", "attempted_at"}),
	}).Create(attempt).Error
	if err != nil {
		return err
	}

	// a replaced answer keeps the id of the first attempt
	var stored models.MCQAttempt
	if err := db.Where("session_id = ? AND question_id = ?", attempt.SessionID, attempt.QuestionID).
		First(&stored).Error; err != nil {
		return err
	}
	*attempt = stored
	return nil
}

func (r *mcqAttemptRepository) ListBySession(ctx context.Context, sessionID string) ([]models.MCQAttempt, error) {
	var attempts []models.MCQAttempt
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("attempted_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *mcqAttemptRepository) SumScore(ctx context.Context, sessionID string) (int, error) {
	var total int
	if err := r.db.WithContext(ctx).Model(&models.MCQAttempt{}).
		Select("COALESCE(SUM(score), 0)").
		Where("session_id = ?", sessionID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
