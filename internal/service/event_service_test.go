package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/intern-portal-api/internal/dto"
)

func waitForEvent(t *testing.T, events <-chan dto.ChangeEvent) dto.ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "event channel closed before delivery")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return dto.ChangeEvent{}
	}
}

func TestEventServiceDeliversLocally(t *testing.T) {
	svc := NewEventService(nil, nil, "", testLogger())

	events, cancel := svc.Subscribe()
	defer cancel()

	svc.PublishChange(context.Background(), dto.ChangeActionInsert, 7)

	event := waitForEvent(t, events)
	require.Equal(t, "submissions", event.Table)
	require.Equal(t, dto.ChangeActionInsert, event.Action)
	require.Equal(t, uint(7), event.SubmissionID)
	require.False(t, event.OccurredAt.IsZero())
}

func TestEventServiceUnsubscribeClosesChannel(t *testing.T) {
	svc := NewEventService(nil, nil, "", testLogger())

	events, cancel := svc.Subscribe()
	cancel()

	_, ok := <-events
	require.False(t, ok)

	// Publishing after unsubscribe must not panic or block.
	svc.PublishChange(context.Background(), dto.ChangeActionUpdate, 7)
}

func TestEventServiceRelaysAcrossNodes(t *testing.T) {
	mr := miniredis.RunT(t)

	newClient := func() *redis.Client {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewEventService(newClient(), nil, "portal", testLogger())
	consumer := NewEventService(newClient(), nil, "portal", testLogger())

	publisher.Start(ctx)
	consumer.Start(ctx)

	events, unsubscribe := consumer.Subscribe()
	defer unsubscribe()

	// Republish until the consumer's redis subscription has attached.
	deadline := time.After(2 * time.Second)
	var received dto.ChangeEvent
	for {
		publisher.PublishChange(ctx, dto.ChangeActionUpdate, 11)
		select {
		case received = <-events:
		case <-time.After(50 * time.Millisecond):
			select {
			case <-deadline:
				t.Fatal("timed out waiting for relayed change event")
			default:
				continue
			}
		}
		break
	}

	require.Equal(t, dto.ChangeActionUpdate, received.Action)
	require.Equal(t, uint(11), received.SubmissionID)
}

func TestEventServiceIgnoresOwnRelayedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewEventService(client, nil, "portal", testLogger())
	svc.Start(ctx)

	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	svc.PublishChange(ctx, dto.ChangeActionInsert, 3)

	// Exactly one delivery: the local broadcast. The relayed copy coming
	// back through redis carries this node's source id and is dropped.
	waitForEvent(t, events)
	select {
	case extra := <-events:
		t.Fatalf("unexpected duplicate delivery: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
