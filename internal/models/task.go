package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task content types.
const (
	TaskTypeText  = "text"
	TaskTypeFile  = "file"
	TaskTypeCode  = "code"
	TaskTypeMixed = "mixed"
)

// Task submission statuses.
const (
	TaskSubmissionSubmitted        = "submitted"
	TaskSubmissionReviewed         = "reviewed"
	TaskSubmissionApproved         = "approved"
	TaskSubmissionRejected         = "rejected"
	TaskSubmissionRevisionRequired = "revision_required"
)

// TaskRequirements bounds what a submission may contain.
type TaskRequirements struct {
	MinWords         int      `json:"min_words,omitempty"`
	MaxWords         int      `json:"max_words,omitempty"`
	AllowedFileTypes []string `json:"allowed_file_types,omitempty"`
	MaxFileSizeMB    int      `json:"max_file_size_mb,omitempty"`
}

// DailyTask is a graded exercise with a deadline.
type DailyTask struct {
	ID           string                               `gorm:"primaryKey;size:64" json:"id"`
	CourseID     string                               `gorm:"size:64;index" json:"course_id"`
	Title        string                               `gorm:"size:255;not null" json:"title"`
	Description  string                               `gorm:"type:text" json:"description"`
	Type         string                               `gorm:"size:16;not null" json:"type"`
	Requirements datatypes.JSONType[TaskRequirements] `gorm:"type:json" json:"requirements"`
	Points       float64                              `gorm:"not null" json:"points"`
	DueDate      time.Time                            `gorm:"not null" json:"due_date"`
	CreatedAt    time.Time                            `json:"created_at"`
	UpdatedAt    time.Time                            `json:"updated_at"`
}

// IsPastDue returns true when the task deadline has already passed.
func (t DailyTask) IsPastDue(reference time.Time) bool {
	return reference.After(t.DueDate)
}

// TaskSubmission is one learner's artifact for a task.
type TaskSubmission struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	TaskID      string     `gorm:"size:64;not null;index" json:"task_id"`
	UserID      string     `gorm:"size:64;not null;index" json:"user_id"`
	Text        string     `gorm:"type:text" json:"text"`
	Code        string     `gorm:"type:text" json:"code"`
	Language    string     `gorm:"size:32" json:"language"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	FileName    string     `gorm:"size:255" json:"file_name"`
	FileSize    int64      `json:"file_size"`
	FileType    string     `gorm:"size:128" json:"file_type"`
	SubmittedAt time.Time  `gorm:"not null" json:"submitted_at"`
	IsLate      bool       `gorm:"not null;default:false" json:"is_late"`
	Status      string     `gorm:"size:32;not null;index" json:"status"`
	Score       *float64   `json:"score"`
	MaxScore    float64    `gorm:"not null" json:"max_score"`
	Feedback    string     `gorm:"type:text" json:"feedback"`
	ReviewedBy  *string    `gorm:"size:64" json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	Task        DailyTask  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsReviewed reports whether an admin has acted on the submission.
func (s TaskSubmission) IsReviewed() bool {
	return s.Status != TaskSubmissionSubmitted
}
