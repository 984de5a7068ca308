package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"listingmap_backend/platform/logger"
)

type pingEvent struct{ BaseEvent }

func (pingEvent) EventName() string { return "ping" }

func TestPublishReachesAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", HandlerFunc(func(context.Context, Event) error {
			calls.Add(1)
			return nil
		}))
	}

	bus.Publish(context.Background(), pingEvent{NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestPublishFailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls atomic.Int32
	bus.Subscribe("ping", HandlerFunc(func(context.Context, Event) error { return errors.New("boom") }))
	bus.Subscribe("ping", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return nil
	}))

	bus.Publish(context.Background(), pingEvent{NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected the healthy handler to run once, got %d", calls.Load())
	}
}

func TestPublishDetachesHandlersFromCancellation(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var seen atomic.Value
	bus.Subscribe("ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		seen.Store(ctx.Err() == nil)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{NewBaseEvent()})
	bus.Wait()

	if live, _ := seen.Load().(bool); !live {
		t.Fatalf("expected handler context to survive caller cancellation")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), pingEvent{NewBaseEvent()})
	bus.Wait()
}

func TestNewBaseEventStampsIDAndTime(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.EventID == b.EventID {
		t.Fatalf("expected distinct event IDs, got %s twice", a.EventID)
	}
	if a.OccurredAt().IsZero() {
		t.Fatalf("expected a timestamp, got zero time")
	}
}
