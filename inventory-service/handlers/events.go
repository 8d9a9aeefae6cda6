package handlers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/inventory-service/domain"
	"github.com/ecomflow/order-system/shared/events"
)

// InventoryEventHandlers reacts to the orchestrator's inventory commands
// and answers with outcome events on the same correlation id.
type InventoryEventHandlers struct {
	ledger    *domain.Ledger
	publisher events.Publisher
	logger    *zap.Logger
}

// NewInventoryEventHandlers creates new inventory event handlers
func NewInventoryEventHandlers(ledger *domain.Ledger, publisher events.Publisher, logger *zap.Logger) *InventoryEventHandlers {
	return &InventoryEventHandlers{
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *InventoryEventHandlers) HandlerID() string {
	return "inventory-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *InventoryEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.ReserveInventoryCommand:
		return h.HandleReserveInventory(ctx, event)
	case events.ReleaseInventoryCommand:
		return h.HandleReleaseInventory(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleReserveInventory holds stock for an order and reports the outcome.
// A reservation failure is a reply, not a handler error: returning an error
// would make the bus retry a command that deterministically fails.
func (h *InventoryEventHandlers) HandleReserveInventory(ctx context.Context, event *events.Event) error {
	var data events.ReserveInventoryData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse reserve inventory data")
	}

	items := make([]domain.ReservedItem, len(data.Items))
	for i, item := range data.Items {
		items[i] = domain.ReservedItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	reservation, err := h.ledger.Reserve(data.OrderID, items)
	if err != nil {
		h.logger.Info("inventory reservation failed",
			zap.String("order_id", data.OrderID.String()),
			zap.Error(err))

		failed := events.NewEvent(data.OrderID, events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
			OrderID:  data.OrderID,
			Reason:   err.Error(),
			FailedAt: time.Now(),
		}).WithCorrelationID(event.CorrelationID)

		return errors.Wrap(h.publisher.Publish(ctx, failed), "failed to publish reservation failure")
	}

	h.logger.Info("inventory reserved",
		zap.String("order_id", data.OrderID.String()),
		zap.String("reservation_id", reservation.ID.String()))

	reserved := events.NewEvent(data.OrderID, events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID:       data.OrderID,
		ReservationID: reservation.ID,
		Status:        string(reservation.Status),
		ReservedAt:    reservation.ReservedAt,
	}).WithCorrelationID(event.CorrelationID)

	return errors.Wrap(h.publisher.Publish(ctx, reserved), "failed to publish reservation outcome")
}

// HandleReleaseInventory returns held stock during compensation
func (h *InventoryEventHandlers) HandleReleaseInventory(ctx context.Context, event *events.Event) error {
	var data events.ReleaseInventoryData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse release inventory data")
	}

	reservation, err := h.ledger.Release(data.ReservationID)
	if err != nil {
		// An unknown reservation means the hold never happened, nothing to undo
		h.logger.Warn("release for unknown reservation",
			zap.String("order_id", data.OrderID.String()),
			zap.String("reservation_id", data.ReservationID.String()))
		return nil
	}

	h.logger.Info("inventory released",
		zap.String("order_id", data.OrderID.String()),
		zap.String("reservation_id", reservation.ID.String()))

	released := events.NewEvent(data.OrderID, events.InventoryReleasedEvent, events.InventoryReleasedData{
		OrderID:       data.OrderID,
		ReservationID: reservation.ID,
		Status:        string(reservation.Status),
		ReleasedAt:    time.Now(),
	}).WithCorrelationID(event.CorrelationID)

	return errors.Wrap(h.publisher.Publish(ctx, released), "failed to publish release outcome")
}
