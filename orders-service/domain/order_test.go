package domain

import (
	"testing"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = ShippingAddress{
	Street:     "123 Main St",
	City:       "Anytown",
	State:      "CA",
	PostalCode: "12345",
	Country:    "USA",
}

func twoItems() []OrderItem {
	return []OrderItem{
		{ProductID: models.GenerateUUID(), ProductName: "Keyboard", Quantity: 2, UnitPrice: models.NewMoney(1000, "USD")},
		{ProductID: models.GenerateUUID(), ProductName: "Mouse", Quantity: 1, UnitPrice: models.NewMoney(500, "USD")},
	}
}

func TestCreate(t *testing.T) {
	customerID := models.GenerateUUID()

	t.Run("computes total from items", func(t *testing.T) {
		order, event, err := Create(customerID, twoItems(), "USD", testAddress)
		require.NoError(t, err)

		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, models.NewMoney(2500, "USD"), order.TotalPrice())

		require.NotNil(t, event)
		assert.Equal(t, events.OrderCreatedEvent, event.EventType)
		assert.Equal(t, order.ID, event.CorrelationID)

		var data events.OrderCreatedData
		require.NoError(t, event.UnmarshalPayload(&data))
		assert.Equal(t, int64(2500), data.TotalPrice.Amount)
		assert.Len(t, data.Items, 2)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, _, err := Create(customerID, nil, "USD", testAddress)
		assert.ErrorIs(t, err, ErrNoItems)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		items := twoItems()
		items[1].Quantity = 0
		_, _, err := Create(customerID, items, "USD", testAddress)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		items := twoItems()
		items[1].UnitPrice = models.NewMoney(500, "EUR")
		_, _, err := Create(customerID, items, "USD", testAddress)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("rejects missing customer", func(t *testing.T) {
		_, _, err := Create("", twoItems(), "USD", testAddress)
		assert.ErrorIs(t, err, ErrMissingCustomer)
	})
}

func TestAddItemAfterSubmit(t *testing.T) {
	order, _, err := Create(models.GenerateUUID(), twoItems(), "USD", testAddress)
	require.NoError(t, err)

	err = order.AddItem(OrderItem{ProductID: models.GenerateUUID(), Quantity: 1, UnitPrice: models.NewMoney(100, "USD")})
	assert.ErrorIs(t, err, ErrOrderNotDraft)
}

func TestUpdateStatus(t *testing.T) {
	newPendingOrder := func(t *testing.T) *Order {
		order, _, err := Create(models.GenerateUUID(), twoItems(), "USD", testAddress)
		require.NoError(t, err)
		return order
	}

	t.Run("forward transition raises status changed event", func(t *testing.T) {
		order := newPendingOrder(t)

		event, err := order.UpdateStatus(OrderStatusInventoryReserving, "")
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, events.OrderStatusChangedEvent, event.EventType)

		var data events.OrderStatusChangedData
		require.NoError(t, event.UnmarshalPayload(&data))
		assert.Equal(t, string(OrderStatusInventoryReserving), data.Status)
	})

	t.Run("unchanged status is a no-op", func(t *testing.T) {
		order := newPendingOrder(t)

		event, err := order.UpdateStatus(OrderStatusPending, "")
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("skipping steps forward is illegal", func(t *testing.T) {
		order := newPendingOrder(t)

		_, err := order.UpdateStatus(OrderStatusPaid, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("failed is reachable from any non-terminal status", func(t *testing.T) {
		order := newPendingOrder(t)
		_, err := order.UpdateStatus(OrderStatusInventoryReserving, "")
		require.NoError(t, err)

		event, err := order.UpdateStatus(OrderStatusFailed, "insufficient stock")
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "insufficient stock", order.FailureReason)
	})

	t.Run("terminal statuses admit no transitions", func(t *testing.T) {
		order := newPendingOrder(t)
		_, err := order.UpdateStatus(OrderStatusCancelled, "customer request")
		require.NoError(t, err)

		_, err = order.UpdateStatus(OrderStatusFailed, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusInventoryReserving, true},
		{OrderStatusInventoryReserving, OrderStatusInventoryReserved, true},
		{OrderStatusInventoryReserved, OrderStatusProcessingPayment, true},
		{OrderStatusProcessingPayment, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusCreatingShipment, true},
		{OrderStatusCreatingShipment, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusShipped, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		// backwards and skipping moves
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPaid, false},
		{OrderStatusInventoryReserved, OrderStatusInventoryReserving, false},
		// out of terminal states
		{OrderStatusCompleted, OrderStatusFailed, false},
		{OrderStatusFailed, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
