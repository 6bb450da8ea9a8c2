package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/observability"
	"github.com/noah-isme/intern-portal-api/internal/repository"
)

var (
	// ErrEmptyFeedback indicates a decision arrived without usable feedback.
	ErrEmptyFeedback = errors.New("feedback must not be empty")
	// ErrAlreadyDecided indicates the submission reached a terminal status.
	ErrAlreadyDecided = errors.New("submission has already been decided")
)

const notificationWarning = "decision saved, but the notification email could not be sent"

// DecisionNotifier delivers the decision email. Delivery failure never rolls
// back a committed decision.
type DecisionNotifier interface {
	SendDecision(ctx context.Context, to, name, verdict, feedback string) error
}

// ReviewService orchestrates the evaluator review workflow.
type ReviewService interface {
	List(ctx context.Context) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Decide(ctx context.Context, id uint, payload dto.DecisionRequest, evaluatorID uint) (dto.DecisionResponse, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	notifier    DecisionNotifier
	events      EventService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReviewService constructs a ReviewService instance. A nil notifier
// disables outbound email; decisions still commit.
func NewReviewService(submissions repository.SubmissionRepository, notifier DecisionNotifier, events EventService, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		submissions: submissions,
		notifier:    notifier,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/intern-portal-api/internal/service/review"),
		now:         time.Now,
	}
}

func (s *reviewService) List(ctx context.Context) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *reviewService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// Decide validates the verdict locally, applies it with a pending-only guard
// and dispatches the notification after the row committed. A concurrent
// decision that loses the guard gets ErrAlreadyDecided and sends nothing.
func (s *reviewService) Decide(ctx context.Context, id uint, payload dto.DecisionRequest, evaluatorID uint) (dto.DecisionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.decide", trace.WithAttributes(
		attribute.Int("review.submission_id", int(id)),
		attribute.Int("review.evaluator_id", int(evaluatorID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.DecisionResponse{}, err
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	if feedback == "" {
		span.SetStatus(codes.Error, "empty_feedback")
		return dto.DecisionResponse{}, ErrEmptyFeedback
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return dto.DecisionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}

	if submission.IsDecided() {
		span.SetStatus(codes.Error, "already_decided")
		return dto.DecisionResponse{}, ErrAlreadyDecided
	}

	decidedAt := s.now()
	updated, err := s.submissions.DecideIfPending(ctx, id, repository.Decision{
		Status:    payload.Verdict,
		Feedback:  feedback,
		DecidedBy: evaluatorID,
		DecidedAt: decidedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		return dto.DecisionResponse{}, err
	}
	if !updated {
		// Another evaluator won the race between our read and write.
		span.SetStatus(codes.Error, "already_decided")
		return dto.DecisionResponse{}, ErrAlreadyDecided
	}

	observability.Decisions().WithLabelValues(payload.Verdict).Inc()
	s.logger.Info().
		Uint("submission_id", id).
		Uint("evaluator_id", evaluatorID).
		Str("verdict", payload.Verdict).
		Msg("decision committed")

	s.events.PublishChange(ctx, dto.ChangeActionUpdate, id)

	decided, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}

	response := dto.DecisionResponse{Submission: dto.NewSubmissionResponse(decided)}

	if s.notifier == nil {
		observability.DecisionEmails().WithLabelValues("skipped").Inc()
		s.logger.Warn().Uint("submission_id", id).Msg("no notifier configured, decision email skipped")
		response.Warning = notificationWarning
		span.SetStatus(codes.Ok, "decided")
		return response, nil
	}

	if err := s.notifier.SendDecision(ctx, decided.Email, decided.FullName, payload.Verdict, feedback); err != nil {
		observability.DecisionEmails().WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Uint("submission_id", id).Msg("decision email delivery failed")
		response.Warning = notificationWarning
		span.SetStatus(codes.Ok, "decided")
		return response, nil
	}

	observability.DecisionEmails().WithLabelValues("sent").Inc()
	span.SetStatus(codes.Ok, "decided")

	return response, nil
}
