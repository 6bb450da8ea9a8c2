package dto

import (
	"time"

	"github.com/noah-isme/intern-portal-api/internal/models"
)

// SubmissionCreateRequest describes the multipart form fields of an
// application submission. The two files arrive as separate form parts.
type SubmissionCreateRequest struct {
	FullName    string `form:"full_name"`
	PhoneNumber string `form:"phone_number"`
	Location    string `form:"location"`
	Email       string `form:"email"`
	Hobbies     string `form:"hobbies"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                uint       `json:"id"`
	UserID            uint       `json:"user_id"`
	FullName          string     `json:"full_name"`
	PhoneNumber       string     `json:"phone_number"`
	Location          string     `json:"location"`
	Email             string     `json:"email"`
	Hobbies           string     `json:"hobbies"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	SourceCodeURL     string     `json:"source_code_url"`
	Status            string     `json:"status"`
	Feedback          string     `json:"feedback"`
	DecidedBy         *uint      `json:"decided_by"`
	DecidedAt         *time.Time `json:"decided_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewSubmissionResponse converts a model into its API representation.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                submission.ID,
		UserID:            submission.UserID,
		FullName:          submission.FullName,
		PhoneNumber:       submission.PhoneNumber,
		Location:          submission.Location,
		Email:             submission.Email,
		Hobbies:           submission.Hobbies,
		ProfilePictureURL: submission.ProfilePictureURL,
		SourceCodeURL:     submission.SourceCodeURL,
		Status:            submission.Status,
		Feedback:          submission.Feedback,
		DecidedBy:         submission.DecidedBy,
		DecidedAt:         submission.DecidedAt,
		CreatedAt:         submission.CreatedAt,
		UpdatedAt:         submission.UpdatedAt,
	}
}

// NewSubmissionResponseSlice maps a slice of models preserving order.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
