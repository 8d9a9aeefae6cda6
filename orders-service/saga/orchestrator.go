package saga

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/ecomflow/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultPaymentMethod = "CreditCard"

const lockStripes = 64

// correlationLocks serializes processing per correlation id. Events for
// different orders proceed fully in parallel; events for the same order are
// handled one at a time so the step-matching guard stays correct.
type correlationLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *correlationLocks) lock(key models.ID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	return &l.stripes[h.Sum32()%lockStripes]
}

// Orchestrator drives the order-fulfillment saga. It reacts to order and
// participant events, persists per-order correlation state, issues the next
// command in the sequence, and issues compensating commands when a later
// step fails. It never blocks waiting for a reply.
type Orchestrator struct {
	store     Store
	orders    domain.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
	locks     correlationLocks
}

// NewOrchestrator creates a new saga orchestrator
func NewOrchestrator(store Store, orders domain.OrderRepository, publisher events.Publisher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// HandlerID returns the unique identifier for this event handler
func (o *Orchestrator) HandlerID() string {
	return "order-saga-orchestrator"
}

// Handle implements the events.EventHandler interface
func (o *Orchestrator) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.OrderCreatedEvent:
		return o.handleOrderCreated(ctx, event)
	case events.InventoryReservedEvent:
		return o.handleInventoryReserved(ctx, event)
	case events.InventoryReservationFailedEvent:
		return o.handleInventoryReservationFailed(ctx, event)
	case events.PaymentProcessedEvent:
		return o.handlePaymentProcessed(ctx, event)
	case events.PaymentFailedEvent:
		return o.handlePaymentFailed(ctx, event)
	case events.ShipmentCreatedEvent:
		return o.handleShipmentCreated(ctx, event)
	case events.ShipmentFailedEvent:
		return o.handleShipmentFailed(ctx, event)
	case events.ShipmentDeliveredEvent:
		return o.handleShipmentDelivered(ctx, event)
	case events.OrderCancellationRequestedEvent:
		return o.handleCancellationRequested(ctx, event)
	default:
		// Not a saga trigger, ignore
		return nil
	}
}

func (o *Orchestrator) handleOrderCreated(ctx context.Context, event *events.Event) error {
	var data events.OrderCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse order created data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state := NewState(data.OrderID, data.CustomerID, data.TotalPrice)
	if err := o.store.Create(ctx, state); err != nil {
		if errors.Is(err, ErrStateExists) {
			// Duplicate OrderCreated delivery, the saga is already running
			o.logger.Debug("ignoring duplicate order created event", zap.String("order_id", data.OrderID.String()))
			return nil
		}
		return errors.Wrap(err, "failed to create saga state")
	}

	telemetry.RecordCounter(ctx, "sagas_started_total", "Sagas started", 1,
		attribute.String("trigger", event.EventType))

	reserveCmd := events.NewEvent(data.OrderID, events.ReserveInventoryCommand, events.ReserveInventoryData{
		OrderID:    data.OrderID,
		CustomerID: data.CustomerID,
		Items:      data.Items,
	}).WithCorrelationID(data.OrderID)

	if err := o.publisher.Publish(ctx, reserveCmd); err != nil {
		return errors.Wrap(err, "failed to publish reserve inventory command")
	}

	o.logger.Info("saga started",
		zap.String("order_id", data.OrderID.String()),
		zap.String("step", string(StepReservingInventory)))

	return o.updateOrderStatus(ctx, data.OrderID, "", domain.OrderStatusInventoryReserving)
}

func (o *Orchestrator) handleInventoryReserved(ctx context.Context, event *events.Event) error {
	var data events.InventoryReservedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse inventory reserved data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepReservingInventory, event.EventType)
	if err != nil || !ok {
		return err
	}

	processCmd := events.NewEvent(data.OrderID, events.ProcessPaymentCommand, events.ProcessPaymentData{
		OrderID:       data.OrderID,
		CustomerID:    state.CustomerID,
		Amount:        state.Amount,
		PaymentMethod: defaultPaymentMethod,
	}).WithCorrelationID(data.OrderID)

	if err := o.publisher.Publish(ctx, processCmd); err != nil {
		return errors.Wrap(err, "failed to publish process payment command")
	}

	state.ReservationID = data.ReservationID
	state.Advance(StepProcessingPayment)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	return o.updateOrderStatus(ctx, data.OrderID, "",
		domain.OrderStatusInventoryReserved, domain.OrderStatusProcessingPayment)
}

func (o *Orchestrator) handleInventoryReservationFailed(ctx context.Context, event *events.Event) error {
	var data events.InventoryReservationFailedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse inventory reservation failed data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepReservingInventory, event.EventType)
	if err != nil || !ok {
		return err
	}

	// Nothing was reserved, no compensation needed
	state.Fail(data.Reason)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	telemetry.RecordCounter(ctx, "sagas_failed_total", "Sagas terminally failed", 1,
		attribute.String("step", string(StepReservingInventory)))

	o.logger.Info("saga failed at inventory reservation",
		zap.String("order_id", data.OrderID.String()),
		zap.String("reason", data.Reason))

	return o.updateOrderStatus(ctx, data.OrderID, data.Reason, domain.OrderStatusFailed)
}

func (o *Orchestrator) handlePaymentProcessed(ctx context.Context, event *events.Event) error {
	var data events.PaymentProcessedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse payment processed data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepProcessingPayment, event.EventType)
	if err != nil || !ok {
		return err
	}

	order, err := o.orders.FindByID(ctx, data.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to load order for shipment command")
	}
	if order == nil {
		o.logger.Error("order missing for in-flight saga", zap.String("order_id", data.OrderID.String()))
		return nil
	}

	items := make([]events.ShipmentItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = events.ShipmentItemData{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	shipCmd := events.NewEvent(data.OrderID, events.CreateShipmentCommand, events.CreateShipmentData{
		OrderID:    data.OrderID,
		CustomerID: state.CustomerID,
		Address:    shippingAddressData(order.ShippingAddress),
		Items:      items,
	}).WithCorrelationID(data.OrderID)

	if err := o.publisher.Publish(ctx, shipCmd); err != nil {
		return errors.Wrap(err, "failed to publish create shipment command")
	}

	state.PaymentID = data.PaymentID
	state.Advance(StepCreatingShipment)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	return o.updateOrderStatus(ctx, data.OrderID, "",
		domain.OrderStatusPaid, domain.OrderStatusCreatingShipment)
}

func (o *Orchestrator) handlePaymentFailed(ctx context.Context, event *events.Event) error {
	var data events.PaymentFailedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse payment failed data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepProcessingPayment, event.EventType)
	if err != nil || !ok {
		return err
	}

	if err := o.releaseInventory(ctx, state); err != nil {
		return err
	}

	state.Fail(data.Reason)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	telemetry.RecordCounter(ctx, "sagas_compensated_total", "Sagas that ran compensation", 1,
		attribute.String("step", string(StepProcessingPayment)))

	o.logger.Info("saga compensating after payment failure",
		zap.String("order_id", data.OrderID.String()),
		zap.String("reason", data.Reason))

	return o.updateOrderStatus(ctx, data.OrderID, data.Reason, domain.OrderStatusFailed)
}

func (o *Orchestrator) handleShipmentCreated(ctx context.Context, event *events.Event) error {
	var data events.ShipmentCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse shipment created data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepCreatingShipment, event.EventType)
	if err != nil || !ok {
		return err
	}

	state.ShipmentID = data.ShipmentID
	state.Advance(StepCompleted)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	telemetry.RecordCounter(ctx, "sagas_completed_total", "Sagas completed successfully", 1)

	o.logger.Info("saga completed",
		zap.String("order_id", data.OrderID.String()),
		zap.String("shipment_id", data.ShipmentID))

	return o.updateOrderStatus(ctx, data.OrderID, "", domain.OrderStatusShipped)
}

func (o *Orchestrator) handleShipmentFailed(ctx context.Context, event *events.Event) error {
	var data events.ShipmentFailedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse shipment failed data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, ok, err := o.stateForStep(ctx, data.OrderID, StepCreatingShipment, event.EventType)
	if err != nil || !ok {
		return err
	}

	// Compensate in reverse order of the completed steps
	refundCmd := events.NewEvent(data.OrderID, events.RefundPaymentCommand, events.RefundPaymentData{
		OrderID:   data.OrderID,
		PaymentID: state.PaymentID,
		Amount:    state.Amount,
		Reason:    "shipment creation failed",
	}).WithCorrelationID(data.OrderID)

	if err := o.publisher.Publish(ctx, refundCmd); err != nil {
		return errors.Wrap(err, "failed to publish refund payment command")
	}

	if err := o.releaseInventory(ctx, state); err != nil {
		return err
	}

	state.Fail(data.Reason)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	telemetry.RecordCounter(ctx, "sagas_compensated_total", "Sagas that ran compensation", 1,
		attribute.String("step", string(StepCreatingShipment)))

	o.logger.Info("saga compensating after shipment failure",
		zap.String("order_id", data.OrderID.String()),
		zap.String("reason", data.Reason))

	return o.updateOrderStatus(ctx, data.OrderID, data.Reason, domain.OrderStatusFailed)
}

// handleShipmentDelivered runs outside the saga's active-compensation window:
// the saga is already terminal-success, only the order lifecycle advances.
func (o *Orchestrator) handleShipmentDelivered(ctx context.Context, event *events.Event) error {
	var data events.ShipmentDeliveredData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse shipment delivered data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	if _, ok, err := o.stateForStep(ctx, data.OrderID, StepCompleted, event.EventType); err != nil || !ok {
		return err
	}

	return o.updateOrderStatus(ctx, data.OrderID, "",
		domain.OrderStatusDelivered, domain.OrderStatusCompleted)
}

// handleCancellationRequested compensates whatever the saga completed so far
// and parks the order in Cancelled.
func (o *Orchestrator) handleCancellationRequested(ctx context.Context, event *events.Event) error {
	var data events.OrderCancellationRequestedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse cancellation request data")
	}

	mux := o.locks.lock(data.OrderID)
	mux.Lock()
	defer mux.Unlock()

	state, err := o.store.Find(ctx, data.OrderID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			o.logger.Warn("cancellation requested for unknown saga", zap.String("order_id", data.OrderID.String()))
			return nil
		}
		return errors.Wrap(err, "failed to load saga state")
	}

	if state.Step.IsTerminal() {
		o.logger.Info("cancellation requested for terminal saga, ignoring",
			zap.String("order_id", data.OrderID.String()),
			zap.String("step", string(state.Step)))
		return nil
	}

	if state.PaymentID != "" {
		refundCmd := events.NewEvent(data.OrderID, events.RefundPaymentCommand, events.RefundPaymentData{
			OrderID:   data.OrderID,
			PaymentID: state.PaymentID,
			Amount:    state.Amount,
			Reason:    "order cancelled",
		}).WithCorrelationID(data.OrderID)
		if err := o.publisher.Publish(ctx, refundCmd); err != nil {
			return errors.Wrap(err, "failed to publish refund payment command")
		}
	}

	if err := o.releaseInventory(ctx, state); err != nil {
		return err
	}

	state.Cancel(data.Reason)
	if err := o.saveState(ctx, state); err != nil {
		return err
	}

	telemetry.RecordCounter(ctx, "sagas_cancelled_total", "Sagas cancelled on request", 1)

	return o.updateOrderStatus(ctx, data.OrderID, data.Reason, domain.OrderStatusCancelled)
}

// stateForStep loads the saga state and applies the idempotency guard: a
// reply whose step does not match the recorded current step is stale
// (duplicate delivery or out-of-order arrival) and is discarded; an unknown
// correlation id is logged and dropped, never an error.
func (o *Orchestrator) stateForStep(ctx context.Context, orderID models.ID, expected Step, eventType string) (*State, bool, error) {
	state, err := o.store.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			o.logger.Warn("dropping event for unknown correlation id",
				zap.String("order_id", orderID.String()),
				zap.String("event_type", eventType))
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to load saga state")
	}

	if state.Step != expected {
		o.logger.Debug("dropping stale saga event",
			zap.String("order_id", orderID.String()),
			zap.String("event_type", eventType),
			zap.String("current_step", string(state.Step)),
			zap.String("expected_step", string(expected)))
		return nil, false, nil
	}

	return state, true, nil
}

func (o *Orchestrator) releaseInventory(ctx context.Context, state *State) error {
	if state.ReservationID == "" {
		return nil
	}

	releaseCmd := events.NewEvent(state.CorrelationID, events.ReleaseInventoryCommand, events.ReleaseInventoryData{
		OrderID:       state.CorrelationID,
		ReservationID: state.ReservationID,
	}).WithCorrelationID(state.CorrelationID)

	return errors.Wrap(o.publisher.Publish(ctx, releaseCmd), "failed to publish release inventory command")
}

func (o *Orchestrator) saveState(ctx context.Context, state *State) error {
	if err := o.store.Update(ctx, state); err != nil {
		if errors.Is(err, ErrStateConflict) {
			// A concurrent writer advanced the saga first; its outcome wins
			o.logger.Warn("saga state version conflict, dropping update",
				zap.String("order_id", state.CorrelationID.String()))
			return nil
		}
		return errors.Wrap(err, "failed to update saga state")
	}
	return nil
}

// updateOrderStatus walks the order through the given statuses and publishes
// the status-changed event for each persisted transition, keeping the
// aggregate and the saga eventually consistent without the orchestrator
// re-reading it on every reply.
func (o *Orchestrator) updateOrderStatus(ctx context.Context, orderID models.ID, reason string, statuses ...domain.OrderStatus) error {
	order, err := o.orders.FindByID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to load order")
	}
	if order == nil {
		o.logger.Error("order not found for status update", zap.String("order_id", orderID.String()))
		return nil
	}

	raised := make([]*events.Event, 0, len(statuses))
	for _, status := range statuses {
		event, err := order.UpdateStatus(status, reason)
		if err != nil {
			o.logger.Warn("skipping illegal order status transition",
				zap.String("order_id", orderID.String()),
				zap.String("from", string(order.Status)),
				zap.String("to", string(status)),
				zap.Error(err))
			continue
		}
		if event == nil {
			continue
		}
		if err := o.orders.Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to persist order status")
		}
		raised = append(raised, event)
	}

	if len(raised) == 0 {
		return nil
	}

	return errors.Wrap(o.publisher.Publish(ctx, raised...), "failed to publish order status events")
}

func shippingAddressData(address domain.ShippingAddress) events.ShippingAddressData {
	return events.ShippingAddressData{
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}
