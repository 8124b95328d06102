package models

import "time"

// FeedbackStatus captures the moderation state of a review.
type FeedbackStatus string

const (
	// FeedbackStatusPending marks a review waiting for moderation.
	FeedbackStatusPending FeedbackStatus = "pending"
	// FeedbackStatusApproved marks a review that counts toward the course rating.
	FeedbackStatusApproved FeedbackStatus = "approved"
	// FeedbackStatusRejected marks a review hidden by a moderator.
	FeedbackStatusRejected FeedbackStatus = "rejected"
)

// Feedback is one learner's rating and review of one course.
type Feedback struct {
	ID                string         `gorm:"primaryKey;size:64" json:"id"`
	UserID            string         `gorm:"size:64;not null;uniqueIndex:idx_feedback_user_course" json:"user_id"`
	CourseID          string         `gorm:"size:64;not null;uniqueIndex:idx_feedback_user_course;index" json:"course_id"`
	StudentName       string         `gorm:"size:255" json:"student_name"`
	Rating            int            `gorm:"not null" json:"rating"`
	Review            string         `gorm:"type:text;not null" json:"review"`
	Status            FeedbackStatus `gorm:"size:16;not null;index" json:"status"`
	IsApproved        bool           `gorm:"not null;default:false" json:"is_approved"`
	AdminResponse     *string        `gorm:"type:text" json:"admin_response"`
	AdminResponseDate *time.Time     `json:"admin_response_date"`
	ModeratedBy       *string        `gorm:"size:64" json:"moderated_by"`
	ModeratedAt       *time.Time     `json:"moderated_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ResetForResubmission puts the review back into the pending queue with fresh content.
func (f *Feedback) ResetForResubmission(rating int, review string, at time.Time) {
	f.Rating = rating
	f.Review = review
	f.CreatedAt = at
	f.Status = FeedbackStatusPending
	f.IsApproved = false
	f.AdminResponse = nil
	f.AdminResponseDate = nil
	f.ModeratedBy = nil
	f.ModeratedAt = nil
}

// CourseRating is the aggregate computed from approved feedback of a course.
type CourseRating struct {
	CourseID      string    `gorm:"primaryKey;size:64" json:"course_id"`
	AverageRating float64   `gorm:"not null" json:"average_rating"`
	TotalReviews  int       `gorm:"not null" json:"total_reviews"`
	Stars1        int       `gorm:"column:stars_1;not null" json:"-"`
	Stars2        int       `gorm:"column:stars_2;not null" json:"-"`
	Stars3        int       `gorm:"column:stars_3;not null" json:"-"`
	Stars4        int       `gorm:"column:stars_4;not null" json:"-"`
	Stars5        int       `gorm:"column:stars_5;not null" json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Distribution returns the number of approved reviews per star value.
func (r CourseRating) Distribution() map[int]int {
	return map[int]int{
		1: r.Stars1,
		2: r.Stars2,
		3: r.Stars3,
		4: r.Stars4,
		5: r.Stars5,
	}
}

// SetDistribution stores the star counts; keys outside 1..5 are ignored.
func (r *CourseRating) SetDistribution(counts map[int]int) {
	r.Stars1 = counts[1]
	r.Stars2 = counts[2]
	r.Stars3 = counts[3]
	r.Stars4 = counts[4]
	r.Stars5 = counts[5]
}
