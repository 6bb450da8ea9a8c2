package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/models"
)

func pendingSubmission(t *testing.T, repo *submissionRepoStub) models.Submission {
	t.Helper()
	submission := models.Submission{
		UserID:   4,
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Status:   models.SubmissionStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &submission))
	return submission
}

func newReviewService(repo *submissionRepoStub, notifier DecisionNotifier, events EventService) ReviewService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewReviewService(repo, notifier, events, validate, testLogger())
}

func TestReviewDecideAcceptsPendingSubmission(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	notifier := &notifierStub{}
	events := &eventsStub{}
	svc := newReviewService(repo, notifier, events)

	decision, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "Great work",
	}, 21)
	require.NoError(t, err)

	require.Equal(t, models.SubmissionStatusAccepted, decision.Submission.Status)
	require.Equal(t, "Great work", decision.Submission.Feedback)
	require.Empty(t, decision.Warning)
	require.NotNil(t, decision.Submission.DecidedBy)
	require.Equal(t, uint(21), *decision.Submission.DecidedBy)

	require.Len(t, notifier.calls, 1)
	require.Equal(t, notifierCall{
		to:       "jane@example.com",
		name:     "Jane Doe",
		verdict:  "accepted",
		feedback: "Great work",
	}, notifier.calls[0])

	require.Len(t, events.events, 1)
	require.Equal(t, dto.ChangeActionUpdate, events.events[0].Action)
}

func TestReviewDecideRejectsEmptyFeedbackLocally(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	notifier := &notifierStub{}
	svc := newReviewService(repo, notifier, &eventsStub{})

	for _, feedback := range []string{"   ", "\t\n"} {
		_, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
			Verdict:  "rejected",
			Feedback: feedback,
		}, 21)
		require.ErrorIs(t, err, ErrEmptyFeedback)
	}

	// No mutation and no notification happened.
	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, stored.Status)
	require.Empty(t, notifier.calls)
}

func TestReviewDecideRejectsInvalidVerdict(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	svc := newReviewService(repo, &notifierStub{}, &eventsStub{})

	_, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "maybe",
		Feedback: "Undecided",
	}, 21)
	require.Error(t, err)
}

func TestReviewDecideRefusesTerminalSubmission(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	notifier := &notifierStub{}
	svc := newReviewService(repo, notifier, &eventsStub{})

	_, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "First decision",
	}, 21)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "rejected",
		Feedback: "Second decision",
	}, 22)
	require.ErrorIs(t, err, ErrAlreadyDecided)

	// The first decision stands and only one email went out.
	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Equal(t, "First decision", stored.Feedback)
	require.Len(t, notifier.calls, 1)
}

func TestReviewDecideLosesGuardRace(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	repo.forceDecideMiss = true
	notifier := &notifierStub{}
	svc := newReviewService(repo, notifier, &eventsStub{})

	_, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "Racing decision",
	}, 21)
	require.ErrorIs(t, err, ErrAlreadyDecided)
	require.Empty(t, notifier.calls)
}

func TestReviewDecideCommitsDespiteNotificationFailure(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	notifier := &notifierStub{err: errStubFailure}
	svc := newReviewService(repo, notifier, &eventsStub{})

	decision, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "rejected",
		Feedback: "Needs more depth",
	}, 21)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusRejected, decision.Submission.Status)
	require.NotEmpty(t, decision.Warning)
}

func TestReviewDecideWithoutNotifier(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	svc := newReviewService(repo, nil, &eventsStub{})

	decision, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "Welcome aboard",
	}, 21)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, decision.Submission.Status)
	require.NotEmpty(t, decision.Warning)
}

func TestReviewDecideSanitizesFeedback(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	notifier := &notifierStub{}
	svc := newReviewService(repo, notifier, &eventsStub{})

	decision, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "<b>Great</b> work",
	}, 21)
	require.NoError(t, err)
	require.Equal(t, "Great work", decision.Submission.Feedback)
}

func TestReviewDecideNotFound(t *testing.T) {
	svc := newReviewService(newSubmissionRepoStub(), &notifierStub{}, &eventsStub{})

	_, err := svc.Decide(context.Background(), 42, dto.DecisionRequest{
		Verdict:  "accepted",
		Feedback: "Great work",
	}, 21)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestReviewGetReturnsStoredFeedback(t *testing.T) {
	repo := newSubmissionRepoStub()
	submission := pendingSubmission(t, repo)
	svc := newReviewService(repo, &notifierStub{}, &eventsStub{})

	_, err := svc.Decide(context.Background(), submission.ID, dto.DecisionRequest{
		Verdict:  "rejected",
		Feedback: "Missing tests",
	}, 21)
	require.NoError(t, err)

	reloaded, err := svc.Get(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, "Missing tests", reloaded.Feedback)
	require.Equal(t, models.SubmissionStatusRejected, reloaded.Status)
}
