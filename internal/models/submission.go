package models

import "time"

// Submission statuses. A submission starts pending and moves to exactly one
// terminal status; terminal rows are never mutated again.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusRejected = "rejected"
)

// Submission is a developer's internship application record. At most one row
// exists per user, enforced by the unique index on UserID.
type Submission struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName          string     `gorm:"size:100;not null" json:"full_name"`
	PhoneNumber       string     `gorm:"size:32;not null" json:"phone_number"`
	Location          string     `gorm:"size:100;not null" json:"location"`
	Email             string     `gorm:"size:255;not null" json:"email"`
	Hobbies           string     `gorm:"size:1000;not null" json:"hobbies"`
	ProfilePictureURL string     `gorm:"size:512;not null" json:"profile_picture_url"`
	SourceCodeURL     string     `gorm:"size:512;not null" json:"source_code_url"`
	Status            string     `gorm:"size:32;not null;default:pending" json:"status"`
	Feedback          string     `gorm:"type:text" json:"feedback"`
	DecidedBy         *uint      `json:"decided_by"`
	DecidedAt         *time.Time `json:"decided_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Profile           Profile    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"profile"`
}

// IsDecided reports whether the submission reached a terminal status.
func (s Submission) IsDecided() bool {
	return s.Status == SubmissionStatusAccepted || s.Status == SubmissionStatusRejected
}
