package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watchdog bounds how long an order can remain non-terminal. When the
// in-flight step of a saga has seen no reply within the step timeout, the
// watchdog feeds the orchestrator that step's failure event, so the normal
// compensation path runs and the order does not hang forever.
type Watchdog struct {
	store        Store
	orchestrator *Orchestrator
	interval     time.Duration
	stepTimeout  time.Duration
	logger       *zap.Logger
}

// NewWatchdog creates a new stuck-saga watchdog
func NewWatchdog(store Store, orchestrator *Orchestrator, interval, stepTimeout time.Duration, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		store:        store,
		orchestrator: orchestrator,
		interval:     interval,
		stepTimeout:  stepTimeout,
		logger:       logger,
	}
}

// Start runs the scan loop until the context is cancelled.
func (w *Watchdog) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error("saga timeout sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep finds sagas stuck past the step timeout and times out each one.
func (w *Watchdog) Sweep(ctx context.Context) error {
	stale, err := w.store.FindStale(ctx, time.Now().Add(-w.stepTimeout))
	if err != nil {
		return errors.Wrap(err, "failed to list stale sagas")
	}

	for _, state := range stale {
		if err := w.timeOut(ctx, state); err != nil {
			w.logger.Error("failed to time out saga",
				zap.String("order_id", state.CorrelationID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// timeOut synthesizes the in-flight step's failure event. Routing it through
// the orchestrator reuses the step guard (a reply racing the sweep simply
// makes one of the two stale) and the usual compensation logic.
func (w *Watchdog) timeOut(ctx context.Context, state *State) error {
	reason := fmt.Sprintf("no reply for step %s within %s", state.Step, w.stepTimeout)
	now := time.Now()

	var event *events.Event
	switch state.Step {
	case StepReservingInventory:
		event = events.NewEvent(state.CorrelationID, events.InventoryReservationFailedEvent, events.InventoryReservationFailedData{
			OrderID:  state.CorrelationID,
			Reason:   reason,
			FailedAt: now,
		})
	case StepProcessingPayment:
		event = events.NewEvent(state.CorrelationID, events.PaymentFailedEvent, events.PaymentFailedData{
			OrderID:  state.CorrelationID,
			Reason:   reason,
			FailedAt: now,
		})
	case StepCreatingShipment:
		event = events.NewEvent(state.CorrelationID, events.ShipmentFailedEvent, events.ShipmentFailedData{
			OrderID:  state.CorrelationID,
			Reason:   reason,
			FailedAt: now,
		})
	default:
		return nil
	}

	event.WithCorrelationID(state.CorrelationID).WithMetadata("timed_out", "true")

	w.logger.Warn("timing out stuck saga",
		zap.String("order_id", state.CorrelationID.String()),
		zap.String("step", string(state.Step)),
		zap.Duration("step_timeout", w.stepTimeout))

	return w.orchestrator.Handle(ctx, event)
}
