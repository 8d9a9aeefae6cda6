package handlers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/payment-service/domain"
	"github.com/ecomflow/order-system/shared/events"
)

// PaymentEventHandlers reacts to the orchestrator's payment commands and
// answers with outcome events on the same correlation id.
type PaymentEventHandlers struct {
	processor *domain.Processor
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPaymentEventHandlers creates new payment event handlers
func NewPaymentEventHandlers(processor *domain.Processor, publisher events.Publisher, logger *zap.Logger) *PaymentEventHandlers {
	return &PaymentEventHandlers{
		processor: processor,
		publisher: publisher,
		logger:    logger,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *PaymentEventHandlers) HandlerID() string {
	return "payment-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.ProcessPaymentCommand:
		return h.HandleProcessPayment(ctx, event)
	case events.RefundPaymentCommand:
		return h.HandleRefundPayment(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleProcessPayment captures a charge and reports the outcome. A declined
// charge is a reply, not a handler error.
func (h *PaymentEventHandlers) HandleProcessPayment(ctx context.Context, event *events.Event) error {
	var data events.ProcessPaymentData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse process payment data")
	}

	payment, err := h.processor.Process(data.OrderID, data.CustomerID, data.Amount, data.PaymentMethod)
	if err != nil {
		h.logger.Info("payment declined",
			zap.String("order_id", data.OrderID.String()),
			zap.Error(err))

		failed := events.NewEvent(data.OrderID, events.PaymentFailedEvent, events.PaymentFailedData{
			OrderID:  data.OrderID,
			Reason:   err.Error(),
			FailedAt: time.Now(),
		}).WithCorrelationID(event.CorrelationID)

		return errors.Wrap(h.publisher.Publish(ctx, failed), "failed to publish payment failure")
	}

	h.logger.Info("payment captured",
		zap.String("order_id", data.OrderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Int64("amount", payment.Amount.Amount))

	processed := events.NewEvent(data.OrderID, events.PaymentProcessedEvent, events.PaymentProcessedData{
		OrderID:       data.OrderID,
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		PaymentMethod: payment.Method,
		Status:        string(payment.Status),
		ProcessedAt:   payment.ProcessedAt,
	}).WithCorrelationID(event.CorrelationID)

	return errors.Wrap(h.publisher.Publish(ctx, processed), "failed to publish payment outcome")
}

// HandleRefundPayment returns a captured charge during compensation
func (h *PaymentEventHandlers) HandleRefundPayment(ctx context.Context, event *events.Event) error {
	var data events.RefundPaymentData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse refund payment data")
	}

	payment, err := h.processor.Refund(data.PaymentID, data.Amount)
	if err != nil {
		h.logger.Error("refund failed",
			zap.String("order_id", data.OrderID.String()),
			zap.String("payment_id", data.PaymentID.String()),
			zap.Error(err))

		failed := events.NewEvent(data.OrderID, events.PaymentRefundFailedEvent, events.PaymentRefundFailedData{
			OrderID:      data.OrderID,
			PaymentID:    data.PaymentID,
			ErrorMessage: err.Error(),
			FailedAt:     time.Now(),
		}).WithCorrelationID(event.CorrelationID)

		return errors.Wrap(h.publisher.Publish(ctx, failed), "failed to publish refund failure")
	}

	h.logger.Info("payment refunded",
		zap.String("order_id", data.OrderID.String()),
		zap.String("payment_id", payment.ID.String()))

	refunded := events.NewEvent(data.OrderID, events.PaymentRefundedEvent, events.PaymentRefundedData{
		OrderID:    data.OrderID,
		PaymentID:  payment.ID,
		Amount:     data.Amount,
		Status:     string(payment.Status),
		RefundedAt: time.Now(),
	}).WithCorrelationID(event.CorrelationID)

	return errors.Wrap(h.publisher.Publish(ctx, refunded), "failed to publish refund outcome")
}
