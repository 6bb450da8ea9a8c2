package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/models"
)

// ProfileRepository defines data operations for portal user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (models.Profile, error)
	GetByEmail(ctx context.Context, email string) (models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}
