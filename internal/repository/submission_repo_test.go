package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/models"
)

func setupSubmissionRepo(t *testing.T) (SubmissionRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.Submission{}))

	return NewSubmissionRepository(db), db
}

func seedSubmission(t *testing.T, repo SubmissionRepository, userID uint) models.Submission {
	t.Helper()
	submission := models.Submission{
		UserID:   userID,
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Status:   models.SubmissionStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &submission))
	return submission
}

func TestSubmissionRepoCreateAndGet(t *testing.T) {
	repo, _ := setupSubmissionRepo(t)
	created := seedSubmission(t, repo, 1)

	byID, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byID.ID)
	require.Equal(t, models.SubmissionStatusPending, byID.Status)

	byUser, err := repo.GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, created.ID, byUser.ID)

	_, err = repo.GetByUserID(context.Background(), 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepoListOrdersNewestFirst(t *testing.T) {
	repo, db := setupSubmissionRepo(t)

	first := seedSubmission(t, repo, 1)
	second := seedSubmission(t, repo, 2)

	// Force distinct creation timestamps; sqlite's clock is too coarse.
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	listed, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, second.ID, listed[0].ID)
	require.Equal(t, first.ID, listed[1].ID)
}

func TestSubmissionRepoDecideIfPending(t *testing.T) {
	repo, _ := setupSubmissionRepo(t)
	created := seedSubmission(t, repo, 1)

	decidedAt := time.Now().UTC().Truncate(time.Second)
	updated, err := repo.DecideIfPending(context.Background(), created.ID, Decision{
		Status:    models.SubmissionStatusAccepted,
		Feedback:  "Great work",
		DecidedBy: 9,
		DecidedAt: decidedAt,
	})
	require.NoError(t, err)
	require.True(t, updated)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Equal(t, "Great work", stored.Feedback)
	require.NotNil(t, stored.DecidedBy)
	require.Equal(t, uint(9), *stored.DecidedBy)
	require.NotNil(t, stored.DecidedAt)

	// A second decision misses the pending guard and changes nothing.
	updated, err = repo.DecideIfPending(context.Background(), created.ID, Decision{
		Status:    models.SubmissionStatusRejected,
		Feedback:  "Changed my mind",
		DecidedBy: 10,
		DecidedAt: time.Now(),
	})
	require.NoError(t, err)
	require.False(t, updated)

	stored, err = repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Equal(t, "Great work", stored.Feedback)
}

func TestSubmissionRepoDecideUnknownID(t *testing.T) {
	repo, _ := setupSubmissionRepo(t)

	updated, err := repo.DecideIfPending(context.Background(), 404, Decision{
		Status:    models.SubmissionStatusAccepted,
		Feedback:  "Great work",
		DecidedBy: 9,
		DecidedAt: time.Now(),
	})
	require.NoError(t, err)
	require.False(t, updated)
}
