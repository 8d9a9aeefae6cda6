package infrastructure

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/shared/events"
)

// StorePublisher decorates a Publisher so every published event is
// appended to the event log first. If the append fails the event is
// not published, which keeps the log a superset of the bus.
type StorePublisher struct {
	store events.EventStore
	next  events.Publisher
}

func NewStorePublisher(store events.EventStore, next events.Publisher) *StorePublisher {
	return &StorePublisher{store: store, next: next}
}

func (p *StorePublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if err := p.store.Append(ctx, evts...); err != nil {
		return errors.Wrap(err, "failed to append events before publish")
	}
	return p.next.Publish(ctx, evts...)
}
