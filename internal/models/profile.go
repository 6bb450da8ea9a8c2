package models

import "time"

// Role values assignable to a profile.
const (
	// RoleDeveloper marks an applicant who can create one submission.
	RoleDeveloper = "developer"
	// RoleEvaluator marks a reviewer who can decide on submissions.
	RoleEvaluator = "evaluator"
)

// Profile represents an authenticated portal user and their role.
type Profile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:developer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsEvaluator reports whether the profile may review submissions.
func (p Profile) IsEvaluator() bool {
	return p.Role == RoleEvaluator
}
