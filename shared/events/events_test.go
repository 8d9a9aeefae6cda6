package events

import (
	"encoding/json"
	"testing"

	"github.com/ecomflow/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"exact match", "inventory.reserved", "inventory.reserved", true},
		{"exact mismatch", "inventory.reserved", "inventory.released", false},
		{"single wildcard", "payment.processed", "payment.*", true},
		{"single wildcard wrong depth", "payment.refund.failed", "payment.*", false},
		{"hash matches everything", "shipment.created", "#", true},
		{"prefix hash", "order.status.changed", "#changed", true},
		{"suffix hash", "order.status.changed", "order.#", true},
		{"contains hash", "inventory.reservation.failed", "#reservation#", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestNewEvent(t *testing.T) {
	orderID := models.GenerateUUID()

	event := NewEvent(orderID, OrderCreatedEvent, OrderCreatedData{
		OrderID:    orderID,
		CustomerID: models.GenerateUUID(),
		TotalPrice: models.NewMoney(2500, "USD"),
	}).WithCorrelationID(orderID)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, orderID, event.AggregateID)
	assert.Equal(t, OrderCreatedEvent, event.EventType)
	assert.Equal(t, Topic(OrderCreatedEvent), event.Topic)
	assert.Equal(t, orderID, event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEventUnmarshalPayload(t *testing.T) {
	orderID := models.GenerateUUID()
	reservationID := models.GenerateUUID()

	t.Run("typed payload", func(t *testing.T) {
		event := NewEvent(orderID, InventoryReservedEvent, InventoryReservedData{
			OrderID:       orderID,
			ReservationID: reservationID,
			Status:        "Reserved",
		})

		var data InventoryReservedData
		require.NoError(t, event.UnmarshalPayload(&data))
		assert.Equal(t, orderID, data.OrderID)
		assert.Equal(t, reservationID, data.ReservationID)
	})

	t.Run("raw json payload survives transport", func(t *testing.T) {
		raw, err := json.Marshal(PaymentProcessedData{
			OrderID:   orderID,
			PaymentID: reservationID,
			Amount:    models.NewMoney(2500, "USD"),
		})
		require.NoError(t, err)

		event := NewEvent(orderID, PaymentProcessedEvent, json.RawMessage(raw))

		var data PaymentProcessedData
		require.NoError(t, event.UnmarshalPayload(&data))
		assert.Equal(t, int64(2500), data.Amount.Amount)
		assert.Equal(t, "USD", data.Amount.Currency)
	})

	t.Run("receiver must be a pointer", func(t *testing.T) {
		event := NewEvent(orderID, PaymentProcessedEvent, PaymentProcessedData{})

		var data PaymentProcessedData
		assert.ErrorIs(t, event.UnmarshalPayload(data), ErrInvalidReceiver)
	})
}
