package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

const validSeedPayload = `{
  "courses": [
    {"id": "powerbi", "title": "Power BI Fundamentals", "category": "data"},
    {"id": "sql", "title": "SQL Essentials", "category": "data"}
  ],
  "questions": [
    {"id": "sql-q1", "course_id": "sql", "question": "Which clause filters rows?", "options": ["ORDER BY", "WHERE", "GROUP BY", "LIMIT"], "correct_answer": 1, "difficulty": "easy", "topic": "basics"}
  ],
  "tasks": [
    {"id": "day-1", "course_id": "sql", "title": "Write a SELECT", "type": "code", "points": 10, "due_date": "2024-01-15T23:59:00Z"}
  ]
}`

func newSeedFixture(t *testing.T, enabled bool, token string) (*gorm.DB, SeedService) {
	t.Helper()

	db := newTestDB(t)
	svc, err := NewSeedService(
		repository.NewCourseRepository(db),
		repository.NewMCQQuestionRepository(db),
		repository.NewTaskRepository(db),
		testValidator(),
		enabled,
		token,
		testLogger(),
	)
	require.NoError(t, err)
	return db, svc
}

func TestSeedServiceImportsCatalog(t *testing.T) {
	db, svc := newSeedFixture(t, true, "secret")
	ctx := context.Background()

	result, err := svc.Seed(ctx, "secret", []byte(validSeedPayload))
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Courses)
	require.Equal(t, int64(1), result.Questions)
	require.Equal(t, int64(1), result.Tasks)

	_, err = svc.Seed(ctx, " secret ", []byte(validSeedPayload))
	require.NoError(t, err)

	var courses int64
	require.NoError(t, db.Model(&models.Course{}).Count(&courses).Error)
	require.Equal(t, int64(2), courses, "re-seeding must upsert, not duplicate")

	var question models.MCQQuestion
	require.NoError(t, db.First(&question, "id = ?", "sql-q1").Error)
	require.Equal(t, 1, question.CorrectAnswer)
	require.Len(t, question.Options, 4)
}

func TestSeedServiceGuards(t *testing.T) {
	_, disabled := newSeedFixture(t, false, "secret")
	_, err := disabled.Seed(context.Background(), "secret", []byte(validSeedPayload))
	require.ErrorIs(t, err, ErrSeedDisabled)

	_, svc := newSeedFixture(t, true, "secret")
	_, err = svc.Seed(context.Background(), "wrong", []byte(validSeedPayload))
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	_, noToken := newSeedFixture(t, true, "")
	_, err = noToken.Seed(context.Background(), "", []byte(validSeedPayload))
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedServiceRejectsInvalidPayload(t *testing.T) {
	_, svc := newSeedFixture(t, true, "secret")
	ctx := context.Background()

	cases := map[string]string{
		"not json":         `{"courses": [`,
		"unknown property": `{"students": []}`,
		"three options":    `{"questions": [{"id": "q", "course_id": "c", "question": "?", "options": ["a", "b", "c"], "correct_answer": 0, "difficulty": "easy"}]}`,
		"answer range":     `{"questions": [{"id": "q", "course_id": "c", "question": "?", "options": ["a", "b", "c", "d"], "correct_answer": 4, "difficulty": "easy"}]}`,
		"zero points":      `{"tasks": [{"id": "t", "title": "T", "type": "text", "points": 0, "due_date": "2024-01-15T23:59:00Z"}]}`,
		"task type":        `{"tasks": [{"id": "t", "title": "T", "type": "video", "points": 5, "due_date": "2024-01-15T23:59:00Z"}]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Import(ctx, []byte(payload))
			require.ErrorIs(t, err, ErrInvalidSeedPayload)
		})
	}
}
