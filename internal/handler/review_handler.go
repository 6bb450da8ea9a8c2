package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/middleware"
	"github.com/noah-isme/intern-portal-api/internal/service"
	"github.com/noah-isme/intern-portal-api/internal/utils"
)

// ReviewHandler manages the evaluator-facing review endpoints, including the
// websocket change stream that drives live list refreshes.
type ReviewHandler struct {
	service service.ReviewService
	events  service.EventService
	logger  zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(service service.ReviewService, events service.EventService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		events:  events,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/submissions", h.list)
	router.Get("/submissions/:id", h.get)
	router.Post("/submissions/:id/decision", h.decide)

	router.Use("/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/events", websocket.New(h.streamEvents))
}

func (h *ReviewHandler) list(c *fiber.Ctx) error {
	submissions, err := h.service.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *ReviewHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *ReviewHandler) decide(c *fiber.Ctx) error {
	evaluatorID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))

	decision, err := h.service.Decide(ctx, id, payload, evaluatorID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "decision recorded", decision)
}

// streamEvents pushes submission change markers to the evaluator until the
// socket closes. Clients respond by re-fetching the full list.
func (h *ReviewHandler) streamEvents(conn *websocket.Conn) {
	events, cancel := h.events.Subscribe()
	defer cancel()
	defer conn.Close()

	h.logger.Info().Msg("review event stream connected")

	// Reads are discarded; the read loop only notices disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("review event stream write failed")
				return
			}
		case <-done:
			h.logger.Info().Msg("review event stream disconnected")
			return
		}
	}
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrEmptyFeedback):
		return utils.SendError(c, fiber.StatusBadRequest, "feedback must not be empty")
	case errors.Is(err, service.ErrAlreadyDecided):
		return utils.SendError(c, fiber.StatusConflict, "submission has already been decided")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}
