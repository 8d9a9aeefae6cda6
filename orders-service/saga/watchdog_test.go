package saga_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

func TestWatchdogTimesOutStuckPaymentStep(t *testing.T) {
	f := newSagaFixture(t)
	reservationID := models.GenerateUUID()

	f.handle(t, f.created)
	f.handle(t, f.reply(events.InventoryReservedEvent, events.InventoryReservedData{
		OrderID: f.order.ID, ReservationID: reservationID, Status: "reserved", ReservedAt: time.Now(),
	}))

	// Backdate the state so the sweep sees it as stale
	state := f.state(t)
	state.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.Update(context.Background(), state))

	watchdog := saga.NewWatchdog(f.store, f.orchestrator, time.Minute, 30*time.Minute, zap.NewNop())
	require.NoError(t, watchdog.Sweep(context.Background()))

	// The synthesized payment failure runs the normal compensation path
	releaseCmds := f.publisher.ofType(events.ReleaseInventoryCommand)
	require.Len(t, releaseCmds, 1)

	final := f.state(t)
	assert.Equal(t, saga.StepFailed, final.Step)
	assert.Contains(t, final.FailureReason, "no reply for step processing_payment")
	assert.Equal(t, domain.OrderStatusFailed, f.orderStatus(t))
}

func TestWatchdogIgnoresFreshAndTerminalSagas(t *testing.T) {
	f := newSagaFixture(t)

	f.handle(t, f.created)

	watchdog := saga.NewWatchdog(f.store, f.orchestrator, time.Minute, 30*time.Minute, zap.NewNop())
	require.NoError(t, watchdog.Sweep(context.Background()))

	// The saga just started, so the sweep must not touch it
	assert.Equal(t, saga.StepReservingInventory, f.state(t).Step)

	f.handle(t, f.reply(events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
		OrderID: f.order.ID, Reason: "insufficient stock", FailedAt: time.Now(),
	}))

	state := f.state(t)
	state.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.store.Update(context.Background(), state))

	require.NoError(t, watchdog.Sweep(context.Background()))
	assert.Equal(t, saga.StepFailed, f.state(t).Step)
}
