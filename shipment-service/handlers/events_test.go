package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/ecomflow/order-system/shipment-service/domain"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []*events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, evts...)
	return nil
}

func (p *capturingPublisher) last(t *testing.T) *events.Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.published)
	return p.published[len(p.published)-1]
}

func TestHandleCreateShipment(t *testing.T) {
	orderID := models.GenerateUUID()
	customerID := models.GenerateUUID()

	createCmd := func(address events.ShippingAddressData) *events.Event {
		return events.NewEvent(orderID, events.CreateShipmentCommand, events.CreateShipmentData{
			OrderID:    orderID,
			CustomerID: customerID,
			Address:    address,
			Items:      []events.ShipmentItemData{{ProductID: models.GenerateUUID(), Quantity: 2}},
		}).WithCorrelationID(orderID)
	}

	goodAddress := events.ShippingAddressData{
		Street: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62704", Country: "US",
	}

	t.Run("publishes created on success", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewShipmentEventHandlers(domain.NewDispatcher(), publisher, zap.NewNop())

		require.NoError(t, h.Handle(context.Background(), createCmd(goodAddress)))

		reply := publisher.last(t)
		assert.Equal(t, events.ShipmentCreatedEvent, reply.EventType)
		assert.Equal(t, orderID, reply.CorrelationID)

		var data events.ShipmentCreatedData
		require.NoError(t, reply.UnmarshalPayload(&data))
		assert.Regexp(t, `^SHIP-\d{8}-\d{4}$`, data.ShipmentID)
	})

	t.Run("publishes failure for bad address without handler error", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewShipmentEventHandlers(domain.NewDispatcher(), publisher, zap.NewNop())

		badAddress := goodAddress
		badAddress.Country = ""

		require.NoError(t, h.Handle(context.Background(), createCmd(badAddress)))

		reply := publisher.last(t)
		assert.Equal(t, events.ShipmentFailedEvent, reply.EventType)

		var data events.ShipmentFailedData
		require.NoError(t, reply.UnmarshalPayload(&data))
		assert.Contains(t, data.Reason, "invalid shipping address")
	})

	t.Run("redelivered command creates one shipment", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewShipmentEventHandlers(domain.NewDispatcher(), publisher, zap.NewNop())

		require.NoError(t, h.Handle(context.Background(), createCmd(goodAddress)))
		require.NoError(t, h.Handle(context.Background(), createCmd(goodAddress)))

		var first, second events.ShipmentCreatedData
		require.NoError(t, publisher.published[0].UnmarshalPayload(&first))
		require.NoError(t, publisher.published[1].UnmarshalPayload(&second))
		assert.Equal(t, first.ShipmentID, second.ShipmentID)
	})
}
