package handlers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shipment-service/domain"
)

// ShipmentEventHandlers reacts to the orchestrator's shipment commands and
// answers with outcome events on the same correlation id.
type ShipmentEventHandlers struct {
	dispatcher *domain.Dispatcher
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewShipmentEventHandlers creates new shipment event handlers
func NewShipmentEventHandlers(dispatcher *domain.Dispatcher, publisher events.Publisher, logger *zap.Logger) *ShipmentEventHandlers {
	return &ShipmentEventHandlers{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *ShipmentEventHandlers) HandlerID() string {
	return "shipment-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *ShipmentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.CreateShipmentCommand:
		return h.HandleCreateShipment(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleCreateShipment dispatches a shipment and reports the outcome. A
// rejected destination is a reply, not a handler error.
func (h *ShipmentEventHandlers) HandleCreateShipment(ctx context.Context, event *events.Event) error {
	var data events.CreateShipmentData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse create shipment data")
	}

	address := domain.Address{
		Street:     data.Address.Street,
		City:       data.Address.City,
		State:      data.Address.State,
		PostalCode: data.Address.PostalCode,
		Country:    data.Address.Country,
	}

	items := make([]domain.ShipmentItem, len(data.Items))
	for i, item := range data.Items {
		items[i] = domain.ShipmentItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	shipment, err := h.dispatcher.Create(data.OrderID, data.CustomerID, address, items)
	if err != nil {
		h.logger.Info("shipment creation failed",
			zap.String("order_id", data.OrderID.String()),
			zap.Error(err))

		failed := events.NewEvent(data.OrderID, events.ShipmentFailedEvent, events.ShipmentFailedData{
			OrderID:  data.OrderID,
			Reason:   err.Error(),
			FailedAt: time.Now(),
		}).WithCorrelationID(event.CorrelationID)

		return errors.Wrap(h.publisher.Publish(ctx, failed), "failed to publish shipment failure")
	}

	h.logger.Info("shipment created",
		zap.String("order_id", data.OrderID.String()),
		zap.String("shipment_id", shipment.ID))

	created := events.NewEvent(data.OrderID, events.ShipmentCreatedEvent, events.ShipmentCreatedData{
		OrderID:    data.OrderID,
		ShipmentID: shipment.ID,
		Status:     string(shipment.Status),
		CreatedAt:  shipment.CreatedAt,
	}).WithCorrelationID(event.CorrelationID)

	return errors.Wrap(h.publisher.Publish(ctx, created), "failed to publish shipment outcome")
}
