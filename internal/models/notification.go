package models

import "time"

// Notification represents a message targeted to a specific user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"column:is_read;not null;default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Course{},
		&Feedback{},
		&CourseRating{},
		&MCQQuestion{},
		&MCQSession{},
		&MCQAttempt{},
		&DailyTask{},
		&TaskSubmission{},
		&ActivityLog{},
		&Notification{},
	}
}
