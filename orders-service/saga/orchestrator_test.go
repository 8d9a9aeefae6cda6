package saga_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/orders-service/infrastructure"
	"github.com/ecomflow/order-system/orders-service/mocks"
	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

// capturingPublisher records everything published so a test can assert on
// the full command sequence.
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

func (p *capturingPublisher) ofType(eventType string) []*events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []*events.Event
	for _, event := range p.published {
		if event.EventType == eventType {
			result = append(result, event)
		}
	}
	return result
}

type sagaFixture struct {
	orchestrator *saga.Orchestrator
	store        *infrastructure.MemorySagaStore
	orders       *infrastructure.MemoryOrderRepository
	publisher    *capturingPublisher
	order        *domain.Order
	created      *events.Event
}

// newSagaFixture builds an orchestrator over in-memory stores with one
// submitted order ($10 x 2 + $5 x 1 = 2500 USD) already persisted.
func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()

	customerID := models.GenerateUUID()
	items := []domain.OrderItem{
		{ProductID: models.GenerateUUID(), ProductName: "Keyboard", Quantity: 2, UnitPrice: models.NewMoney(1000, "USD")},
		{ProductID: models.GenerateUUID(), ProductName: "Cable", Quantity: 1, UnitPrice: models.NewMoney(500, "USD")},
	}
	address := domain.ShippingAddress{
		Street: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62704", Country: "US",
	}

	order, created, err := domain.Create(customerID, items, "USD", address)
	require.NoError(t, err)

	orders := infrastructure.NewMemoryOrderRepository()
	require.NoError(t, orders.Save(context.Background(), order))

	store := infrastructure.NewMemorySagaStore()
	publisher := &capturingPublisher{}
	orchestrator := saga.NewOrchestrator(store, orders, publisher, zap.NewNop())

	return &sagaFixture{
		orchestrator: orchestrator,
		store:        store,
		orders:       orders,
		publisher:    publisher,
		order:        order,
		created:      created,
	}
}

func (f *sagaFixture) handle(t *testing.T, event *events.Event) {
	t.Helper()
	require.NoError(t, f.orchestrator.Handle(context.Background(), event))
}

func (f *sagaFixture) reply(eventType string, data interface{}) *events.Event {
	return events.NewEvent(f.order.ID, eventType, data).WithCorrelationID(f.order.ID)
}

func (f *sagaFixture) orderStatus(t *testing.T) domain.OrderStatus {
	t.Helper()
	order, err := f.orders.FindByID(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order.Status
}

func (f *sagaFixture) state(t *testing.T) *saga.State {
	t.Helper()
	state, err := f.store.Find(context.Background(), f.order.ID)
	require.NoError(t, err)
	return state
}

func TestSagaHappyPath(t *testing.T) {
	f := newSagaFixture(t)
	reservationID := models.GenerateUUID()
	paymentID := models.GenerateUUID()

	f.handle(t, f.created)

	reserveCmds := f.publisher.ofType(events.ReserveInventoryCommand)
	require.Len(t, reserveCmds, 1)
	var reserve events.ReserveInventoryData
	require.NoError(t, reserveCmds[0].UnmarshalPayload(&reserve))
	assert.Equal(t, f.order.ID, reserve.OrderID)
	assert.Len(t, reserve.Items, 2)
	assert.Equal(t, f.order.ID, reserveCmds[0].CorrelationID)
	assert.Equal(t, domain.OrderStatusInventoryReserving, f.orderStatus(t))

	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: reservationID, Status: "reserved", ReservedAt: time.Now(),
	}))

	payCmds := f.publisher.ofType(events.ProcessPaymentCommand)
	require.Len(t, payCmds, 1)
	var pay events.ProcessPaymentData
	require.NoError(t, payCmds[0].UnmarshalPayload(&pay))
	assert.Equal(t, int64(2500), pay.Amount.Amount)
	assert.Equal(t, "USD", pay.Amount.Currency)
	assert.Equal(t, domain.OrderStatusProcessingPayment, f.orderStatus(t))

	f.handle(t, f.reply(events.PaymentProcessedEvent, events.PaymentProcessedData{
		OrderID: f.order.ID, PaymentID: paymentID, Amount: pay.Amount, Status: "completed", ProcessedAt: time.Now(),
	}))

	shipCmds := f.publisher.ofType(events.CreateShipmentCommand)
	require.Len(t, shipCmds, 1)
	var ship events.CreateShipmentData
	require.NoError(t, shipCmds[0].UnmarshalPayload(&ship))
	assert.Equal(t, "Springfield", ship.Address.City)
	assert.Len(t, ship.Items, 2)
	assert.Equal(t, domain.OrderStatusCreatingShipment, f.orderStatus(t))

	f.handle(t, f.reply(events.ShipmentCreatedEvent, events.ShipmentCreatedData{
		OrderID: f.order.ID, ShipmentID: "SHIP-20260901-0001", Status: "created", CreatedAt: time.Now(),
	}))

	state := f.state(t)
	assert.Equal(t, saga.StepCompleted, state.Step)
	assert.Equal(t, reservationID, state.ReservationID)
	assert.Equal(t, paymentID, state.PaymentID)
	assert.Equal(t, "SHIP-20260901-0001", state.ShipmentID)
	assert.Equal(t, domain.OrderStatusShipped, f.orderStatus(t))

	f.handle(t, f.reply(events.ShipmentDeliveredEvent, events.ShipmentDeliveredData{
		OrderID: f.order.ID, ShipmentID: "SHIP-20260901-0001", DeliveredAt: time.Now(),
	}))
	assert.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t))

	// No compensation on the happy path
	assert.Empty(t, f.publisher.ofType(events.ReleaseInventoryCommand))
	assert.Empty(t, f.publisher.ofType(events.RefundPaymentCommand))
}

func TestSagaInventoryReservationFailed(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
		OrderID: f.order.ID, Reason: "insufficient stock", FailedAt: time.Now(),
	}))

	state := f.state(t)
	assert.Equal(t, saga.StepFailed, state.Step)
	assert.Equal(t, "insufficient stock", state.FailureReason)
	assert.Equal(t, domain.OrderStatusFailed, f.orderStatus(t))

	// Nothing was reserved or paid, so nothing to compensate
	assert.Empty(t, f.publisher.ofType(events.ReleaseInventoryCommand))
	assert.Empty(t, f.publisher.ofType(events.RefundPaymentCommand))

	order, err := f.orders.FindByID(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "insufficient stock", order.FailureReason)
}

func TestSagaPaymentFailedReleasesInventory(t *testing.T) {
	f := newSagaFixture(t)
	reservationID := models.GenerateUUID()

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: reservationID, Status: "reserved", ReservedAt: time.Now(),
	}))
	f.handle(t, f.reply(events.PaymentFailedEvent, events.PaymentFailedData{
		OrderID: f.order.ID, Reason: "card declined", FailedAt: time.Now(),
	}))

	releaseCmds := f.publisher.ofType(events.ReleaseInventoryCommand)
	require.Len(t, releaseCmds, 1)
	var release events.ReleaseInventoryData
	require.NoError(t, releaseCmds[0].UnmarshalPayload(&release))
	assert.Equal(t, reservationID, release.ReservationID)

	assert.Empty(t, f.publisher.ofType(events.RefundPaymentCommand))
	assert.Equal(t, saga.StepFailed, f.state(t).Step)
	assert.Equal(t, domain.OrderStatusFailed, f.orderStatus(t))
}

func TestSagaShipmentFailedRefundsAndReleases(t *testing.T) {
	f := newSagaFixture(t)
	reservationID := models.GenerateUUID()
	paymentID := models.GenerateUUID()

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: reservationID, Status: "reserved", ReservedAt: time.Now(),
	}))
	f.handle(t, f.reply(events.PaymentProcessedEvent, events.PaymentProcessedData{
		OrderID: f.order.ID, PaymentID: paymentID, Amount: models.NewMoney(2500, "USD"), Status: "completed", ProcessedAt: time.Now(),
	}))
	f.handle(t, f.reply(events.ShipmentFailedEvent, events.ShipmentFailedData{
		OrderID: f.order.ID, Reason: "invalid address", FailedAt: time.Now(),
	}))

	refundCmds := f.publisher.ofType(events.RefundPaymentCommand)
	require.Len(t, refundCmds, 1)
	var refund events.RefundPaymentData
	require.NoError(t, refundCmds[0].UnmarshalPayload(&refund))
	assert.Equal(t, paymentID, refund.PaymentID)
	assert.Equal(t, int64(2500), refund.Amount.Amount)

	releaseCmds := f.publisher.ofType(events.ReleaseInventoryCommand)
	require.Len(t, releaseCmds, 1)

	state := f.state(t)
	assert.Equal(t, saga.StepFailed, state.Step)
	assert.Equal(t, "invalid address", state.FailureReason)
	assert.Equal(t, domain.OrderStatusFailed, f.orderStatus(t))
}

func TestSagaDuplicateOrderCreatedStartsOneSaga(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)
	f.handle(t, f.created)

	assert.Len(t, f.publisher.ofType(events.ReserveInventoryCommand), 1)
	assert.Equal(t, saga.StepReservingInventory, f.state(t).Step)
}

func TestSagaDuplicateInventoryReservedChargesOnce(t *testing.T) {
	f := newSagaFixture(t)
	reserved := f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: models.GenerateUUID(), Status: "reserved", ReservedAt: time.Now(),
	})

	f.handle(t, f.created)
	f.handle(t, reserved)
	f.handle(t, reserved)

	assert.Len(t, f.publisher.ofType(events.ProcessPaymentCommand), 1)
	assert.Equal(t, saga.StepProcessingPayment, f.state(t).Step)
}

func TestSagaOutOfOrderReplyDropped(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)

	// PaymentProcessed arrives while the saga is still waiting on inventory
	f.handle(t, f.reply(events.PaymentProcessedEvent, events.PaymentProcessedData{
		OrderID: f.order.ID, PaymentID: models.GenerateUUID(), Amount: models.NewMoney(2500, "USD"), Status: "completed", ProcessedAt: time.Now(),
	}))

	assert.Empty(t, f.publisher.ofType(events.CreateShipmentCommand))
	assert.Equal(t, saga.StepReservingInventory, f.state(t).Step)
	assert.Equal(t, domain.OrderStatusInventoryReserving, f.orderStatus(t))
}

func TestSagaReplyAfterTerminalStateDropped(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
		OrderID: f.order.ID, Reason: "insufficient stock", FailedAt: time.Now(),
	}))

	// The participant's late success must not restart a failed saga
	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: models.GenerateUUID(), Status: "reserved", ReservedAt: time.Now(),
	}))

	assert.Empty(t, f.publisher.ofType(events.ProcessPaymentCommand))
	assert.Equal(t, saga.StepFailed, f.state(t).Step)
}

func TestSagaUnknownCorrelationIDDropped(t *testing.T) {
	store := mocks.NewMockSagaStore(t)
	publisher := mocks.NewMockPublisher(t)
	orders := mocks.NewMockOrderRepository(t)
	orchestrator := saga.NewOrchestrator(store, orders, publisher, zap.NewNop())

	orderID := models.GenerateUUID()
	store.EXPECT().Find(mock.Anything, orderID).Return(nil, saga.ErrStateNotFound).Once()

	event := events.NewEvent(orderID, events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: orderID, ReservationID: models.GenerateUUID(), Status: "reserved", ReservedAt: time.Now(),
	}).WithCorrelationID(orderID)

	// No publish and no order update expectations: the event is dropped
	assert.NoError(t, orchestrator.Handle(context.Background(), event))
}

func TestSagaCancellationAfterPaymentCompensatesBoth(t *testing.T) {
	f := newSagaFixture(t)
	reservationID := models.GenerateUUID()
	paymentID := models.GenerateUUID()

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: reservationID, Status: "reserved", ReservedAt: time.Now(),
	}))
	f.handle(t, f.reply(events.PaymentProcessedEvent, events.PaymentProcessedData{
		OrderID: f.order.ID, PaymentID: paymentID, Amount: models.NewMoney(2500, "USD"), Status: "completed", ProcessedAt: time.Now(),
	}))

	f.handle(t, f.reply(events.OrderCancellationRequestedEvent, events.OrderCancellationRequestedData{
		OrderID: f.order.ID, RequestedBy: f.order.CustomerID, Reason: "changed my mind",
	}))

	require.Len(t, f.publisher.ofType(events.RefundPaymentCommand), 1)
	require.Len(t, f.publisher.ofType(events.ReleaseInventoryCommand), 1)

	state := f.state(t)
	assert.Equal(t, saga.StepCancelled, state.Step)
	assert.Equal(t, "changed my mind", state.FailureReason)
	assert.Equal(t, domain.OrderStatusCancelled, f.orderStatus(t))
}

func TestSagaCancellationOfTerminalSagaIgnored(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
		OrderID: f.order.ID, Reason: "insufficient stock", FailedAt: time.Now(),
	}))

	f.handle(t, f.reply(events.OrderCancellationRequestedEvent, events.OrderCancellationRequestedData{
		OrderID: f.order.ID, RequestedBy: f.order.CustomerID, Reason: "too late",
	}))

	assert.Equal(t, saga.StepFailed, f.state(t).Step)
	assert.Equal(t, domain.OrderStatusFailed, f.orderStatus(t))
}
