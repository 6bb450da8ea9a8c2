package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/middleware"
	"github.com/noah-isme/intern-portal-api/internal/service"
	"github.com/noah-isme/intern-portal-api/internal/utils"
	"github.com/noah-isme/intern-portal-api/pkg/assets"
)

// SubmissionHandler manages the developer-facing submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/me", h.getOwn)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	payload := dto.SubmissionCreateRequest{
		FullName:    c.FormValue("full_name"),
		PhoneNumber: c.FormValue("phone_number"),
		Location:    c.FormValue("location"),
		Email:       c.FormValue("email"),
		Hobbies:     c.FormValue("hobbies"),
	}

	// Missing files are reported through the validation map, not as a
	// transport error, so the client renders them next to the fields.
	image, err := c.FormFile("profile_image")
	if err != nil {
		image = nil
	}
	archive, err := c.FormFile("source_archive")
	if err != nil {
		archive = nil
	}

	submission, err := h.service.Create(c.Context(), userID, payload, image, archive)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) getOwn(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	submission, err := h.service.GetOwn(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var draftErrors *service.DraftValidationError
	switch {
	case errors.Is(err, service.ErrDuplicateSubmission):
		return utils.SendError(c, fiber.StatusConflict, "you have already submitted an application")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.As(err, &draftErrors):
		return utils.SendFieldErrors(c, "submission has invalid fields", draftErrors.Fields)
	case errors.Is(err, assets.ErrImageTypeNotAllowed), errors.Is(err, assets.ErrImageTooLarge):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, assets.ErrCompressionFailed):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "profile picture could not be compressed")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
