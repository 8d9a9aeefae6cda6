package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomflow/order-system/shared/models"
)

func validAddress() Address {
	return Address{
		Street:     "123 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62704",
		Country:    "US",
	}
}

func someItems() []ShipmentItem {
	return []ShipmentItem{{ProductID: models.GenerateUUID(), Quantity: 2}}
}

func TestDispatcherCreate(t *testing.T) {
	t.Run("creates shipment with manifest id", func(t *testing.T) {
		dispatcher := NewDispatcher()

		shipment, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), someItems())
		require.NoError(t, err)

		expected := fmt.Sprintf("SHIP-%s-0001", time.Now().Format("20060102"))
		assert.Equal(t, expected, shipment.ID)
		assert.Equal(t, ShipmentStatusCreated, shipment.Status)
	})

	t.Run("sequence increments per shipment", func(t *testing.T) {
		dispatcher := NewDispatcher()

		first, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), someItems())
		require.NoError(t, err)
		second, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), someItems())
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("repeat for same order returns existing shipment", func(t *testing.T) {
		dispatcher := NewDispatcher()
		orderID := models.GenerateUUID()
		customerID := models.GenerateUUID()

		first, err := dispatcher.Create(orderID, customerID, validAddress(), someItems())
		require.NoError(t, err)

		second, err := dispatcher.Create(orderID, customerID, validAddress(), someItems())
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("rejects incomplete address", func(t *testing.T) {
		dispatcher := NewDispatcher()

		address := validAddress()
		address.PostalCode = ""

		_, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), address, someItems())
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("rejects empty items", func(t *testing.T) {
		dispatcher := NewDispatcher()

		_, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), nil)
		assert.ErrorIs(t, err, ErrNoItems)
	})
}

func TestDispatcherMarkDelivered(t *testing.T) {
	t.Run("marks created shipment delivered", func(t *testing.T) {
		dispatcher := NewDispatcher()
		shipment, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), someItems())
		require.NoError(t, err)

		delivered, err := dispatcher.MarkDelivered(shipment.ID)
		require.NoError(t, err)
		assert.Equal(t, ShipmentStatusDelivered, delivered.Status)
		assert.NotNil(t, delivered.DeliveredAt)
	})

	t.Run("double delivery rejected", func(t *testing.T) {
		dispatcher := NewDispatcher()
		shipment, err := dispatcher.Create(models.GenerateUUID(), models.GenerateUUID(), validAddress(), someItems())
		require.NoError(t, err)

		_, err = dispatcher.MarkDelivered(shipment.ID)
		require.NoError(t, err)
		_, err = dispatcher.MarkDelivered(shipment.ID)
		assert.ErrorIs(t, err, ErrAlreadyDelivered)
	})

	t.Run("unknown shipment", func(t *testing.T) {
		dispatcher := NewDispatcher()
		_, err := dispatcher.MarkDelivered("SHIP-20260101-0001")
		assert.ErrorIs(t, err, ErrShipmentNotFound)
	})
}
