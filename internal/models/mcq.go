package models

import (
	"time"

	"gorm.io/datatypes"
)

// MCQ session states.
const (
	MCQSessionInProgress = "in-progress"
	MCQSessionCompleted  = "completed"
	MCQSessionAbandoned  = "abandoned"
)

// MCQQuestion is a four-option multiple choice question attached to a course.
type MCQQuestion struct {
	ID            string                      `gorm:"primaryKey;size:64" json:"id"`
	CourseID      string                      `gorm:"size:64;not null;index" json:"course_id"`
	Question      string                      `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `gorm:"type:json" json:"options"`
	CorrectAnswer int                         `gorm:"not null" json:"correct_answer"`
	Difficulty    string                      `gorm:"size:16;index" json:"difficulty"`
	Topic         string                      `gorm:"size:128;index" json:"topic"`
	Explanation   string                      `gorm:"type:text" json:"explanation"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// MCQSession is one quiz attempt over a fixed, ordered set of questions.
type MCQSession struct {
	ID          string                      `gorm:"primaryKey;size:64" json:"id"`
	UserID      string                      `gorm:"size:64;not null;index" json:"user_id"`
	CourseID    string                      `gorm:"size:64;not null;index" json:"course_id"`
	QuestionIDs datatypes.JSONSlice[string] `gorm:"type:json" json:"question_ids"`
	StartTime   time.Time                   `gorm:"not null" json:"start_time"`
	EndTime     *time.Time                  `json:"end_time"`
	TotalScore  int                         `gorm:"not null;default:0" json:"total_score"`
	MaxScore    int                         `gorm:"not null" json:"max_score"`
	Percentage  float64                     `gorm:"not null;default:0" json:"percentage"`
	Status      string                      `gorm:"size:16;not null;index" json:"status"`
	TimeLimit   int                         `gorm:"not null" json:"time_limit"`
	Attempts    []MCQAttempt                `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attempts,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// IsOpen reports whether answers may still be recorded.
func (s MCQSession) IsOpen() bool {
	return s.Status == MCQSessionInProgress
}

// MCQAttempt records the answer given to one question inside a session.
type MCQAttempt struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID      string    `gorm:"size:64;not null;uniqueIndex:idx_attempt_session_question" json:"session_id"`
	QuestionID     string    `gorm:"size:64;not null;uniqueIndex:idx_attempt_session_question" json:"question_id"`
	UserID         string    `gorm:"size:64;not null;index" json:"user_id"`
	SelectedAnswer int       `gorm:"not null" json:"selected_answer"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	Score          int       `gorm:"not null" json:"score"`
	TimeSpent      int       `gorm:"not null;default:0" json:"time_spent"`
	AttemptedAt    time.Time `gorm:"not null" json:"attempted_at"`
}
