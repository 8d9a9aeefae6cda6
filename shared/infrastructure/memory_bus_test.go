package infrastructure

import (
	"context"
	"sync"
	"testing"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	id  string
	mux sync.Mutex
	got []*events.Event
	err error
}

func (h *recordingHandler) HandlerID() string { return h.id }

func (h *recordingHandler) Handle(_ context.Context, event *events.Event) error {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.got = append(h.got, event)
	return h.err
}

func (h *recordingHandler) events() []*events.Event {
	h.mux.Lock()
	defer h.mux.Unlock()
	out := make([]*events.Event, len(h.got))
	copy(out, h.got)
	return out
}

func TestMemoryBusDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()
	defer bus.Close()

	handler := &recordingHandler{id: "orders"}
	require.NoError(t, bus.Subscribe(ctx, "inventory.#", handler))

	aggregateID := models.GenerateUUID()
	first := events.NewEvent(aggregateID, events.ReserveInventoryCommand, nil)
	second := events.NewEvent(aggregateID, events.InventoryReservedEvent, nil)
	ignored := events.NewEvent(aggregateID, events.PaymentProcessedEvent, nil)

	require.NoError(t, bus.Publish(ctx, first, second, ignored))
	bus.Wait()

	got := handler.events()
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestMemoryBusRetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus(WithMaxAttempts(2))
	defer bus.Close()

	handler := &recordingHandler{id: "failing", err: errors.New("boom")}
	require.NoError(t, bus.Subscribe(ctx, "", handler))

	event := events.NewEvent(models.GenerateUUID(), events.ShipmentCreatedEvent, nil)
	require.NoError(t, bus.Publish(ctx, event))
	bus.Wait()

	assert.Len(t, handler.events(), 2, "handler should be retried up to max attempts")

	dead := bus.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, event.ID, dead[0].ID)
}

func TestMemoryBusFanOut(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()
	defer bus.Close()

	inventory := &recordingHandler{id: "inventory"}
	audit := &recordingHandler{id: "audit"}
	require.NoError(t, bus.Subscribe(ctx, events.ReserveInventoryCommand, inventory))
	require.NoError(t, bus.Subscribe(ctx, "#", audit))

	require.NoError(t, bus.Publish(ctx, events.NewEvent(models.GenerateUUID(), events.ReserveInventoryCommand, nil)))
	bus.Wait()

	assert.Len(t, inventory.events(), 1)
	assert.Len(t, audit.events(), 1)
}
