package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/models"
	"github.com/noah-isme/intern-portal-api/internal/observability"
	"github.com/noah-isme/intern-portal-api/internal/repository"
	"github.com/noah-isme/intern-portal-api/internal/validation"
	"github.com/noah-isme/intern-portal-api/pkg/assets"
)

var (
	// ErrDuplicateSubmission indicates the developer already submitted.
	ErrDuplicateSubmission = errors.New("a submission already exists for this user")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// DraftValidationError carries the per-field error map produced by the
// validation engine.
type DraftValidationError struct {
	Fields map[string]string
}

func (e *DraftValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid submission fields: " + strings.Join(names, ", ")
}

// BlobUploader abstracts the blob storage collaborator.
type BlobUploader interface {
	UploadAs(ctx context.Context, publicID string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates the developer submission workflow.
type SubmissionService interface {
	Create(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest, image, archive *multipart.FileHeader) (dto.SubmissionResponse, error)
	GetOwn(ctx context.Context, userID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	uploader    BlobUploader
	events      EventService
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, uploader BlobUploader, events EventService, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		uploader:    uploader,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/intern-portal-api/internal/service/submission"),
	}
}

// Create runs the submission steps in strict order and aborts on the first
// failure. No row is written unless every earlier step succeeded; blobs
// uploaded before a late failure are overwritten on retry because public IDs
// are deterministic per user.
func (s *submissionService) Create(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest, image, archive *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create", trace.WithAttributes(
		attribute.Int("submission.user_id", int(userID)),
	))
	defer span.End()

	if _, err := s.submissions.GetByUserID(ctx, userID); err == nil {
		observability.SubmissionsBlocked().WithLabelValues("duplicate").Inc()
		span.SetStatus(codes.Error, "duplicate")
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	draft := validation.Draft{
		FullName:    payload.FullName,
		PhoneNumber: payload.PhoneNumber,
		Location:    payload.Location,
		Email:       payload.Email,
		Hobbies:     payload.Hobbies,
	}
	if image != nil {
		draft.ProfileImage = &validation.FileMeta{Name: image.Filename, Size: image.Size}
	}
	if archive != nil {
		draft.SourceArchive = &validation.FileMeta{Name: archive.Filename, Size: archive.Size}
	}

	if problems := validation.ValidateDraft(draft); len(problems) > 0 {
		observability.SubmissionsBlocked().WithLabelValues("validation").Inc()
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, &DraftValidationError{Fields: problems}
	}

	imageBytes, err := readAll(image)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("failed to read profile picture: %w", err)
	}

	compressed, err := assets.Compress(imageBytes)
	if err != nil {
		observability.SubmissionsBlocked().WithLabelValues("asset").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "asset_failed")
		return dto.SubmissionResponse{}, err
	}

	pictureURL, err := s.uploader.UploadAs(ctx, fmt.Sprintf("user-%d/profile-picture", userID), bytes.NewReader(compressed.Data))
	if err != nil {
		observability.SubmissionsBlocked().WithLabelValues("upload").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "picture_upload_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload profile picture: %w", err)
	}

	archiveReader, err := archive.Open()
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open source archive: %w", err)
	}
	defer archiveReader.Close()

	archiveURL, err := s.uploader.UploadAs(ctx, fmt.Sprintf("user-%d/source-code", userID), archiveReader)
	if err != nil {
		observability.SubmissionsBlocked().WithLabelValues("upload").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive_upload_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload source archive: %w", err)
	}

	normalized := draft.Normalized()
	submission := models.Submission{
		UserID:            userID,
		FullName:          s.sanitizer.Sanitize(normalized.FullName),
		PhoneNumber:       normalized.PhoneNumber,
		Location:          s.sanitizer.Sanitize(normalized.Location),
		Email:             normalized.Email,
		Hobbies:           s.sanitizer.Sanitize(normalized.Hobbies),
		ProfilePictureURL: pictureURL,
		SourceCodeURL:     archiveURL,
		Status:            models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsCreated().Inc()
	span.SetStatus(codes.Ok, "created")
	s.logger.Info().Uint("submission_id", submission.ID).Uint("user_id", userID).Msg("submission created")

	s.events.PublishChange(ctx, dto.ChangeActionInsert, submission.ID)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) GetOwn(ctx context.Context, userID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func readAll(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, assets.MaxImageBytes+1)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
