package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/models"
)

// Decision captures the column updates an evaluator verdict produces.
type Decision struct {
	Status    string
	Feedback  string
	DecidedBy uint
	DecidedAt time.Time
}

// SubmissionRepository defines data operations for application submissions.
type SubmissionRepository interface {
	ListAll(ctx context.Context) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByUserID(ctx context.Context, userID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	// DecideIfPending applies the decision only when the row is still
	// pending and reports whether a row was updated. The guard makes a
	// concurrent double-decision lose cleanly instead of overwriting.
	DecideIfPending(ctx context.Context, id uint, decision Decision) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Profile")
}

func (r *submissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByUserID(ctx context.Context, userID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).Where("user_id = ?", userID).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) DecideIfPending(ctx context.Context, id uint, decision Decision) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"status":     decision.Status,
			"feedback":   decision.Feedback,
			"decided_by": decision.DecidedBy,
			"decided_at": decision.DecidedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
