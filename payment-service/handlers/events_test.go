package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/payment-service/domain"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
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

func TestHandleProcessPayment(t *testing.T) {
	orderID := models.GenerateUUID()
	customerID := models.GenerateUUID()
	threshold := models.NewMoney(50000, "USD")

	processCmd := func(amount int64) *events.Event {
		return events.NewEvent(orderID, events.ProcessPaymentCommand, events.ProcessPaymentData{
			OrderID:       orderID,
			CustomerID:    customerID,
			Amount:        models.NewMoney(amount, "USD"),
			PaymentMethod: "CreditCard",
		}).WithCorrelationID(orderID)
	}

	t.Run("captures charge within threshold", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewPaymentEventHandlers(domain.NewProcessor(threshold), publisher, zap.NewNop())

		require.NoError(t, h.Handle(context.Background(), processCmd(2500)))

		reply := publisher.last(t)
		assert.Equal(t, events.PaymentProcessedEvent, reply.EventType)
		assert.Equal(t, orderID, reply.CorrelationID)

		var data events.PaymentProcessedData
		require.NoError(t, reply.UnmarshalPayload(&data))
		assert.NotEmpty(t, data.PaymentID)
		assert.Equal(t, int64(2500), data.Amount.Amount)
	})

	t.Run("declines above threshold without handler error", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewPaymentEventHandlers(domain.NewProcessor(threshold), publisher, zap.NewNop())

		require.NoError(t, h.Handle(context.Background(), processCmd(99999)))

		reply := publisher.last(t)
		assert.Equal(t, events.PaymentFailedEvent, reply.EventType)

		var data events.PaymentFailedData
		require.NoError(t, reply.UnmarshalPayload(&data))
		assert.Contains(t, data.Reason, "manual approval required")
	})

	t.Run("redelivered command charges once", func(t *testing.T) {
		publisher := &capturingPublisher{}
		processor := domain.NewProcessor(threshold)
		h := NewPaymentEventHandlers(processor, publisher, zap.NewNop())

		require.NoError(t, h.Handle(context.Background(), processCmd(2500)))
		require.NoError(t, h.Handle(context.Background(), processCmd(2500)))

		var first, second events.PaymentProcessedData
		require.NoError(t, publisher.published[0].UnmarshalPayload(&first))
		require.NoError(t, publisher.published[1].UnmarshalPayload(&second))
		assert.Equal(t, first.PaymentID, second.PaymentID)
	})
}

func TestHandleRefundPayment(t *testing.T) {
	orderID := models.GenerateUUID()
	threshold := models.NewMoney(50000, "USD")

	t.Run("refunds captured charge", func(t *testing.T) {
		processor := domain.NewProcessor(threshold)
		payment, err := processor.Process(orderID, models.GenerateUUID(), models.NewMoney(2500, "USD"), "CreditCard")
		require.NoError(t, err)

		publisher := &capturingPublisher{}
		h := NewPaymentEventHandlers(processor, publisher, zap.NewNop())

		refund := events.NewEvent(orderID, events.RefundPaymentCommand, events.RefundPaymentData{
			OrderID:   orderID,
			PaymentID: payment.ID,
			Amount:    payment.Amount,
			Reason:    "shipment creation failed",
		}).WithCorrelationID(orderID)

		require.NoError(t, h.Handle(context.Background(), refund))

		reply := publisher.last(t)
		assert.Equal(t, events.PaymentRefundedEvent, reply.EventType)
	})

	t.Run("unknown payment publishes refund failure", func(t *testing.T) {
		publisher := &capturingPublisher{}
		h := NewPaymentEventHandlers(domain.NewProcessor(threshold), publisher, zap.NewNop())

		refund := events.NewEvent(orderID, events.RefundPaymentCommand, events.RefundPaymentData{
			OrderID:   orderID,
			PaymentID: models.GenerateUUID(),
			Amount:    models.NewMoney(2500, "USD"),
			Reason:    "order cancelled",
		}).WithCorrelationID(orderID)

		require.NoError(t, h.Handle(context.Background(), refund))

		reply := publisher.last(t)
		assert.Equal(t, events.PaymentRefundFailedEvent, reply.EventType)
	})
}
