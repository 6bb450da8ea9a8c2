package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/observability"
)

const eventBufferSize = 16

const submissionsTable = "submissions"

// EventService fans submission change notifications out to evaluator
// sessions. Subscribers receive bare change markers and re-fetch the full
// submission list themselves, so coalesced or reordered deliveries are
// harmless.
type EventService interface {
	PublishChange(ctx context.Context, action string, submissionID uint)
	Subscribe() (<-chan dto.ChangeEvent, func())
	Start(ctx context.Context)
}

type eventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *changeBroker
	nodeID       string
}

type changeEnvelope struct {
	Source string          `json:"source"`
	Event  dto.ChangeEvent `json:"event"`
}

type changeBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.ChangeEvent]struct{}
}

// NewEventService constructs the change-event fan-out. Redis and NATS are
// both optional; with neither configured the broker still serves
// single-instance deployments.
func NewEventService(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":changes"
		subject = channelBase + ".changes"
	}

	return &eventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_service").Logger(),
		broker: &changeBroker{
			subscribers: make(map[chan dto.ChangeEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// PublishChange notifies local subscribers immediately and relays the event
// to the configured brokers for other instances. Relay failures are logged
// and never surfaced to the triggering workflow.
func (s *eventService) PublishChange(ctx context.Context, action string, submissionID uint) {
	event := dto.ChangeEvent{
		Table:        submissionsTable,
		Action:       action,
		SubmissionID: submissionID,
		OccurredAt:   time.Now().UTC(),
	}

	s.broker.broadcast(event)

	if err := s.relay(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to relay submission change event")
	}
}

func (s *eventService) Subscribe() (<-chan dto.ChangeEvent, func()) {
	channel := make(chan dto.ChangeEvent, eventBufferSize)

	s.broker.subscribe(channel)
	observability.EventSubscribers().Inc()

	cleanup := func() {
		s.broker.unsubscribe(channel)
		observability.EventSubscribers().Dec()
	}

	return channel, cleanup
}

func (s *eventService) relay(ctx context.Context, event dto.ChangeEvent) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(changeEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("submission change redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	subscription, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats subject")
		return
	}

	<-ctx.Done()
	_ = subscription.Unsubscribe()
}

func (s *eventService) handleEnvelope(payload []byte) {
	var envelope changeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("dropping malformed change event")
		return
	}

	// Events published by this node already reached local subscribers.
	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *changeBroker) subscribe(channel chan dto.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = struct{}{}
}

func (b *changeBroker) unsubscribe(channel chan dto.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[channel]; ok {
		delete(b.subscribers, channel)
		close(channel)
	}
}

func (b *changeBroker) broadcast(event dto.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for channel := range b.subscribers {
		select {
		case channel <- event:
		default:
			// Slow subscriber: drop rather than block. The consumer
			// re-fetches full state on its next event anyway.
		}
	}
}
