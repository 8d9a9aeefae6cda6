package infrastructure

import (
	"context"
	"sync"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	_ events.Publisher  = (*MemoryBus)(nil)
	_ events.Subscriber = (*MemoryBus)(nil)
)

const defaultQueueSize = 64

// MemoryBus is an in-process transport with the same delivery contract as the
// SNS/SQS pair: at-least-once, no ordering across topics, FIFO within each
// subscriber queue. Handler failures are retried a bounded number of times,
// then the event is parked in a dead-letter area for inspection.
type MemoryBus struct {
	mux         sync.RWMutex
	subs        []*memorySubscription
	closed      bool
	maxAttempts int
	logger      *zap.Logger

	inflight sync.WaitGroup

	dlMux       sync.Mutex
	deadLetters []*events.Event
}

type memorySubscription struct {
	pattern events.Topic
	handler events.EventHandler
	queue   chan *events.Event
}

type MemoryBusOption func(*MemoryBus)

func WithMaxAttempts(attempts int) MemoryBusOption {
	return func(b *MemoryBus) {
		b.maxAttempts = attempts
	}
}

func WithBusLogger(logger *zap.Logger) MemoryBusOption {
	return func(b *MemoryBus) {
		b.logger = logger
	}
}

// NewMemoryBus creates a new in-memory bus
func NewMemoryBus(opts ...MemoryBusOption) *MemoryBus {
	bus := &MemoryBus{
		maxAttempts: 3,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Subscribe registers a handler for every event whose topic matches the given
// pattern. An empty pattern subscribes to all topics. Each subscription gets
// its own queue and worker goroutine, so delivery within a subscription is
// strictly ordered.
func (b *MemoryBus) Subscribe(ctx context.Context, topicPattern string, handler events.EventHandler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	if topicPattern == "" {
		topicPattern = "#"
	}

	pattern, err := events.NewTopic(topicPattern)
	if err != nil {
		return errors.Wrap(err, "invalid topic pattern")
	}

	sub := &memorySubscription{
		pattern: pattern,
		handler: handler,
		queue:   make(chan *events.Event, defaultQueueSize),
	}

	b.mux.Lock()
	if b.closed {
		b.mux.Unlock()
		return errors.New("bus is closed")
	}
	b.subs = append(b.subs, sub)
	b.mux.Unlock()

	go b.consume(ctx, sub)

	return nil
}

// Publish delivers the events to every matching subscription.
func (b *MemoryBus) Publish(ctx context.Context, evts ...*events.Event) error {
	b.mux.RLock()
	defer b.mux.RUnlock()

	if b.closed {
		return errors.New("bus is closed")
	}

	for _, event := range evts {
		for _, sub := range b.subs {
			if !event.Topic.Matches(sub.pattern) {
				continue
			}

			b.inflight.Add(1)
			select {
			case sub.queue <- event.Clone():
			case <-ctx.Done():
				b.inflight.Done()
				return ctx.Err()
			}
		}
	}

	return nil
}

func (b *MemoryBus) consume(ctx context.Context, sub *memorySubscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.queue:
			if !ok {
				return
			}
			b.dispatch(ctx, sub, event)
			b.inflight.Done()
		}
	}
}

func (b *MemoryBus) dispatch(ctx context.Context, sub *memorySubscription, event *events.Event) {
	var err error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if err = sub.handler.Handle(ctx, event); err == nil {
			return
		}
	}

	b.logger.Error("event exhausted delivery attempts, moving to dead letters",
		zap.String("topic", event.Topic.String()),
		zap.String("event_id", event.ID.String()),
		zap.Int("attempts", b.maxAttempts),
		zap.Error(err))

	b.dlMux.Lock()
	b.deadLetters = append(b.deadLetters, event)
	b.dlMux.Unlock()
}

// DeadLetters returns the events that exhausted their delivery attempts.
func (b *MemoryBus) DeadLetters() []*events.Event {
	b.dlMux.Lock()
	defer b.dlMux.Unlock()

	out := make([]*events.Event, len(b.deadLetters))
	copy(out, b.deadLetters)
	return out
}

// Wait blocks until every published event has been handled, including events
// published by handlers while draining.
func (b *MemoryBus) Wait() {
	b.inflight.Wait()
}

// Close stops accepting publishes and shuts the subscriber queues.
func (b *MemoryBus) Close() error {
	b.mux.Lock()
	defer b.mux.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, sub := range b.subs {
		close(sub.queue)
	}

	return nil
}
