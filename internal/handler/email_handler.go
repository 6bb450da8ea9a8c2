package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/observability"
	"github.com/noah-isme/intern-portal-api/internal/service"
)

// EmailHandler fronts the internal decision-notification endpoint. Its wire
// contract is fixed: {to, name, decision, feedback} in, {success:true} or
// {error} out.
type EmailHandler struct {
	notifier service.DecisionNotifier
	logger   zerolog.Logger
}

// NewEmailHandler builds the handler. A nil notifier means the transport
// credentials were not configured; requests then fail with 500.
func NewEmailHandler(notifier service.DecisionNotifier, logger zerolog.Logger) *EmailHandler {
	return &EmailHandler{
		notifier: notifier,
		logger:   logger.With().Str("component", "email_handler").Logger(),
	}
}

// Register attaches the route to the provided router.
func (h *EmailHandler) Register(router fiber.Router) {
	router.Post("/send-email", h.send)
}

func (h *EmailHandler) send(c *fiber.Ctx) error {
	var payload dto.DecisionEmailRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.DecisionEmailResponse{Error: "invalid request body"})
	}

	if missing := missingEmailField(payload); missing != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.DecisionEmailResponse{Error: missing + " is required"})
	}

	if payload.Decision != "accepted" && payload.Decision != "rejected" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.DecisionEmailResponse{Error: "decision must be accepted or rejected"})
	}

	if h.notifier == nil {
		h.logger.Error().Msg("send-email requested without configured smtp credentials")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.DecisionEmailResponse{Error: "email transport is not configured"})
	}

	if err := h.notifier.SendDecision(c.Context(), payload.To, payload.Name, payload.Decision, payload.Feedback); err != nil {
		observability.DecisionEmails().WithLabelValues("failed").Inc()
		h.logger.Error().Err(err).Str("to", payload.To).Msg("decision email delivery failed")
		return c.Status(fiber.StatusBadGateway).JSON(dto.DecisionEmailResponse{Error: "failed to send email"})
	}

	observability.DecisionEmails().WithLabelValues("sent").Inc()

	return c.Status(fiber.StatusOK).JSON(dto.DecisionEmailResponse{Success: true})
}

func missingEmailField(payload dto.DecisionEmailRequest) string {
	switch {
	case strings.TrimSpace(payload.To) == "":
		return "to"
	case strings.TrimSpace(payload.Name) == "":
		return "name"
	case strings.TrimSpace(payload.Decision) == "":
		return "decision"
	case strings.TrimSpace(payload.Feedback) == "":
		return "feedback"
	default:
		return ""
	}
}
