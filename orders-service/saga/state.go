package saga

import (
	"context"
	"time"

	"github.com/ecomflow/order-system/shared/models"
	"github.com/pkg/errors"
)

// Step is the orchestrator's position in the fulfillment sequence
type Step string

const (
	StepReservingInventory Step = "reserving_inventory"
	StepProcessingPayment  Step = "processing_payment"
	StepCreatingShipment   Step = "creating_shipment"
	StepCompleted          Step = "completed"
	StepFailed             Step = "failed"
	StepCancelled          Step = "cancelled"
)

// IsTerminal reports whether the saga reached a final step
func (s Step) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepCancelled
}

var (
	ErrStateNotFound = errors.New("saga state not found")
	ErrStateExists   = errors.New("saga state already exists for correlation id")
	ErrStateConflict = errors.New("saga state version conflict")
)

// State is the per-order correlation state carried across the asynchronous
// gaps between a published command and its outcome event. The correlation id
// is the order id; at most one state exists per order.
//
// CustomerID and Amount are denormalized from the OrderCreated snapshot so
// follow-on commands can be issued without re-reading the aggregate.
type State struct {
	CorrelationID models.ID    `json:"correlation_id" db:"correlation_id"`
	CustomerID    models.ID    `json:"customer_id" db:"customer_id"`
	Amount        models.Money `json:"amount"`
	Step          Step         `json:"step" db:"step"`
	ReservationID models.ID    `json:"reservation_id,omitempty" db:"reservation_id"`
	PaymentID     models.ID    `json:"payment_id,omitempty" db:"payment_id"`
	ShipmentID    string       `json:"shipment_id,omitempty" db:"shipment_id"`
	FailureReason string       `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
	Version       int          `json:"version" db:"version"`
}

// NewState starts a saga at the inventory reservation step
func NewState(orderID, customerID models.ID, amount models.Money) *State {
	now := time.Now()
	return &State{
		CorrelationID: orderID,
		CustomerID:    customerID,
		Amount:        amount,
		Step:          StepReservingInventory,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

// Advance moves the saga to the next step
func (s *State) Advance(step Step) {
	s.Step = step
	s.UpdatedAt = time.Now()
}

// Fail marks the saga terminally failed with a reason
func (s *State) Fail(reason string) {
	s.Step = StepFailed
	s.FailureReason = reason
	s.UpdatedAt = time.Now()
}

// Cancel marks the saga terminally cancelled with a reason
func (s *State) Cancel(reason string) {
	s.Step = StepCancelled
	s.FailureReason = reason
	s.UpdatedAt = time.Now()
}

// Store is durable keyed storage for in-flight saga state. Implementations
// must reject duplicate Create calls for the same correlation id and apply
// Update with a version check so concurrent writers cannot lose updates.
type Store interface {
	Find(ctx context.Context, correlationID models.ID) (*State, error)
	Create(ctx context.Context, state *State) error
	Update(ctx context.Context, state *State) error
	FindStale(ctx context.Context, olderThan time.Time) ([]*State, error)
}
