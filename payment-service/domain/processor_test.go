package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomflow/order-system/shared/models"
)

func TestProcessorProcess(t *testing.T) {
	threshold := models.NewMoney(50000, "USD")

	t.Run("auto-approves within threshold", func(t *testing.T) {
		processor := NewProcessor(threshold)

		payment, err := processor.Process(models.GenerateUUID(), models.GenerateUUID(),
			models.NewMoney(2500, "USD"), "CreditCard")
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusCompleted, payment.Status)
		assert.Equal(t, int64(2500), payment.Amount.Amount)
	})

	t.Run("rejects above threshold", func(t *testing.T) {
		processor := NewProcessor(threshold)

		_, err := processor.Process(models.GenerateUUID(), models.GenerateUUID(),
			models.NewMoney(50001, "USD"), "CreditCard")
		assert.ErrorIs(t, err, ErrManualApprovalRequired)
	})

	t.Run("rejects foreign currency", func(t *testing.T) {
		processor := NewProcessor(threshold)

		_, err := processor.Process(models.GenerateUUID(), models.GenerateUUID(),
			models.NewMoney(100, "EUR"), "CreditCard")
		assert.ErrorIs(t, err, ErrManualApprovalRequired)
	})

	t.Run("repeat for same order charges once", func(t *testing.T) {
		processor := NewProcessor(threshold)
		orderID := models.GenerateUUID()
		customerID := models.GenerateUUID()
		amount := models.NewMoney(2500, "USD")

		first, err := processor.Process(orderID, customerID, amount, "CreditCard")
		require.NoError(t, err)

		second, err := processor.Process(orderID, customerID, amount, "CreditCard")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestProcessorRefund(t *testing.T) {
	threshold := models.NewMoney(50000, "USD")

	capture := func(t *testing.T, processor *Processor) *Payment {
		t.Helper()
		payment, err := processor.Process(models.GenerateUUID(), models.GenerateUUID(),
			models.NewMoney(2500, "USD"), "CreditCard")
		require.NoError(t, err)
		return payment
	}

	t.Run("refunds captured charge", func(t *testing.T) {
		processor := NewProcessor(threshold)
		payment := capture(t, processor)

		refunded, err := processor.Refund(payment.ID, payment.Amount)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusRefunded, refunded.Status)
	})

	t.Run("double refund is a no-op", func(t *testing.T) {
		processor := NewProcessor(threshold)
		payment := capture(t, processor)

		_, err := processor.Refund(payment.ID, payment.Amount)
		require.NoError(t, err)

		refunded, err := processor.Refund(payment.ID, payment.Amount)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusRefunded, refunded.Status)
	})

	t.Run("unknown payment", func(t *testing.T) {
		processor := NewProcessor(threshold)
		_, err := processor.Refund(models.GenerateUUID(), models.NewMoney(100, "USD"))
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("refund above captured amount", func(t *testing.T) {
		processor := NewProcessor(threshold)
		payment := capture(t, processor)

		_, err := processor.Refund(payment.ID, models.NewMoney(9999, "USD"))
		assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	})
}
