package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/coursehub-api/internal/dto"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/repository"
)

func newMCQFixture(t *testing.T, cfg MCQConfig) (*gorm.DB, *mcqService) {
	t.Helper()

	db := newTestDB(t)
	svc := NewMCQService(
		repository.NewMCQQuestionRepository(db),
		repository.NewMCQSessionRepository(db),
		repository.NewMCQAttemptRepository(db),
		testValidator(),
		testLogger(),
		cfg,
	).(*mcqService)
	svc.shuffle = func(int, func(i, j int)) {}

	return db, svc
}

func createQuestions(t *testing.T, svc MCQService, courseID string, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		q, err := svc.CreateQuestion(context.Background(), dto.MCQQuestionCreateRequest{
			ID:            fmt.Sprintf("%s-q%d", courseID, i),
			CourseID:      courseID,
			Question:      fmt.Sprintf("Question number %d?", i),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: 1,
			Difficulty:    "easy",
			Explanation:   "B is right",
		})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	return ids
}

func TestMCQSessionScoring(t *testing.T) {
	_, svc := newMCQFixture(t, MCQConfig{})
	ctx := context.Background()
	ids := createQuestions(t, svc, "sql", 5)

	session, err := svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "sql", QuestionIDs: ids})
	require.NoError(t, err)
	require.Equal(t, models.MCQSessionInProgress, session.Status)
	require.Equal(t, 5, session.MaxScore)
	require.Equal(t, 30, session.TimeLimit)

	for i, answer := range []int{1, 0, 1, 1, 0} {
		attempt, err := svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: ids[i], SelectedAnswer: answer, TimeSpent: 12})
		require.NoError(t, err)
		require.Equal(t, answer == 1, attempt.IsCorrect)
	}

	completed, err := svc.CompleteSession(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.MCQSessionCompleted, completed.Status)
	require.Equal(t, 3, completed.TotalScore)
	require.Equal(t, 5, completed.MaxScore)
	require.InDelta(t, 60.0, completed.Percentage, 0.001)
	require.NotNil(t, completed.EndTime)

	again, err := svc.CompleteSession(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, completed.TotalScore, again.TotalScore)

	_, err = svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: ids[1], SelectedAnswer: 1})
	require.ErrorIs(t, err, ErrSessionClosed)

	result, err := svc.Result(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
	require.Equal(t, ids[0], result.Items[0].QuestionID)
	require.Equal(t, 1, result.Items[0].CorrectAnswer)
	require.NotNil(t, result.Items[1].SelectedAnswer)
	require.Equal(t, 0, *result.Items[1].SelectedAnswer)
	require.False(t, result.Items[1].IsCorrect)
}

func TestMCQAnswerReplacesEarlierAttempt(t *testing.T) {
	db, svc := newMCQFixture(t, MCQConfig{})
	ctx := context.Background()
	ids := createQuestions(t, svc, "python", 2)

	session, err := svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "python", QuestionIDs: ids})
	require.NoError(t, err)

	first, err := svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: ids[0], SelectedAnswer: 3})
	require.NoError(t, err)
	second, err := svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: ids[0], SelectedAnswer: 1})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, second.SelectedAnswer)
	require.True(t, second.IsCorrect)

	var count int64
	require.NoError(t, db.Model(&models.MCQAttempt{}).Where("session_id = ?", session.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	completed, err := svc.CompleteSession(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, completed.TotalScore)
	require.InDelta(t, 50.0, completed.Percentage, 0.001)
}

func TestMCQSubmitAnswerErrors(t *testing.T) {
	_, svc := newMCQFixture(t, MCQConfig{})
	ctx := context.Background()
	ids := createQuestions(t, svc, "excel", 3)

	session, err := svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "excel", QuestionIDs: ids[:2]})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: "nope", SelectedAnswer: 1})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = svc.SubmitAnswer(ctx, session.ID, "u1", dto.MCQAnswerRequest{QuestionID: ids[2], SelectedAnswer: 1})
	require.ErrorIs(t, err, ErrQuestionNotInSession)

	_, err = svc.SubmitAnswer(ctx, session.ID, "someone-else", dto.MCQAnswerRequest{QuestionID: ids[0], SelectedAnswer: 1})
	require.ErrorIs(t, err, ErrSessionForbidden)

	_, err = svc.SubmitAnswer(ctx, "missing", "u1", dto.MCQAnswerRequest{QuestionID: ids[0], SelectedAnswer: 1})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "excel", QuestionIDs: []string{ids[0], "ghost"}})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "empty"})
	require.ErrorIs(t, err, ErrNoQuestions)

	sqlIDs := createQuestions(t, svc, "sql", 2)
	_, err = svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "python", QuestionIDs: sqlIDs})
	require.ErrorIs(t, err, ErrQuestionOtherCourse)

	_, err = svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "excel", QuestionIDs: []string{ids[0], sqlIDs[0]}})
	require.ErrorIs(t, err, ErrQuestionOtherCourse)

	_, err = svc.Result(ctx, session.ID, "u1")
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestMCQStartSessionDrawsDefaultCount(t *testing.T) {
	_, svc := newMCQFixture(t, MCQConfig{DefaultQuestionCount: 3, TimeLimitMinutes: 15})
	ctx := context.Background()
	ids := createQuestions(t, svc, "sql", 5)

	session, err := svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "sql"})
	require.NoError(t, err)
	require.Equal(t, ids[:3], session.QuestionIDs)
	require.Equal(t, 3, session.MaxScore)
	require.Equal(t, 15, session.TimeLimit)

	small, err := svc.StartSession(ctx, "u2", dto.MCQStartRequest{CourseID: "sql", QuestionIDs: []string{ids[4], ids[4]}})
	require.NoError(t, err)
	require.Equal(t, []string{ids[4]}, small.QuestionIDs)

	blank, err := svc.StartSession(ctx, "u3", dto.MCQStartRequest{CourseID: "sql", QuestionIDs: []string{" ", ""}})
	require.NoError(t, err)
	require.Equal(t, ids[:3], blank.QuestionIDs)
	require.Equal(t, 3, blank.MaxScore)
}

func TestMCQAbandonSession(t *testing.T) {
	_, svc := newMCQFixture(t, MCQConfig{})
	ctx := context.Background()
	ids := createQuestions(t, svc, "sql", 1)

	session, err := svc.StartSession(ctx, "u1", dto.MCQStartRequest{CourseID: "sql", QuestionIDs: ids})
	require.NoError(t, err)

	abandoned, err := svc.AbandonSession(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.MCQSessionAbandoned, abandoned.Status)

	_, err = svc.CompleteSession(ctx, session.ID, "u1")
	require.ErrorIs(t, err, ErrSessionClosed)

	sessions, err := svc.ListSessions(ctx, "u1", "sql")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, models.MCQSessionAbandoned, sessions[0].Status)
}

func TestScorePercentageEmptySession(t *testing.T) {
	require.Zero(t, scorePercentage(0, 0))
	require.InDelta(t, 100.0, scorePercentage(4, 4), 0.001)
}

func TestListQuestionsHidesAnswers(t *testing.T) {
	_, svc := newMCQFixture(t, MCQConfig{})
	createQuestions(t, svc, "sql", 2)

	questions, err := svc.ListQuestions(context.Background(), dto.MCQQuestionFilter{CourseID: "sql", Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, []string{"A", "B", "C", "D"}, questions[0].Options)
}
