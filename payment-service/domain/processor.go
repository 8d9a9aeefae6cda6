package domain

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/shared/models"
)

// PaymentStatus is the lifecycle of a processed payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

var (
	ErrManualApprovalRequired = errors.New("manual approval required")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrCurrencyMismatch       = errors.New("refund currency does not match payment")
	ErrRefundExceedsPayment   = errors.New("refund exceeds captured amount")
)

// Payment is one captured charge for an order
type Payment struct {
	ID          models.ID     `json:"id"`
	OrderID     models.ID     `json:"order_id"`
	CustomerID  models.ID     `json:"customer_id"`
	Amount      models.Money  `json:"amount"`
	Method      string        `json:"method"`
	Status      PaymentStatus `json:"status"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// Processor captures and refunds payments. Charges above the auto-approval
// threshold are rejected rather than queued: fulfilment cannot block on a
// human reviewer. Process is idempotent on the order id.
type Processor struct {
	mu        sync.Mutex
	threshold models.Money
	payments  map[models.ID]*Payment
	byOrder   map[models.ID]models.ID
}

// NewProcessor creates a processor that auto-approves charges up to threshold
func NewProcessor(threshold models.Money) *Processor {
	return &Processor{
		threshold: threshold,
		payments:  make(map[models.ID]*Payment),
		byOrder:   make(map[models.ID]models.ID),
	}
}

// Process captures a charge for an order. A repeated command for the same
// order returns the existing payment without charging twice.
func (p *Processor) Process(orderID, customerID models.ID, amount models.Money, method string) (*Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if paymentID, ok := p.byOrder[orderID]; ok {
		return p.payments[paymentID], nil
	}

	if amount.Currency != p.threshold.Currency || amount.Amount > p.threshold.Amount {
		return nil, errors.Wrapf(ErrManualApprovalRequired, "amount %d %s exceeds auto-approval limit %d %s",
			amount.Amount, amount.Currency, p.threshold.Amount, p.threshold.Currency)
	}

	payment := &Payment{
		ID:          models.GenerateUUID(),
		OrderID:     orderID,
		CustomerID:  customerID,
		Amount:      amount,
		Method:      method,
		Status:      PaymentStatusCompleted,
		ProcessedAt: time.Now(),
	}
	p.payments[payment.ID] = payment
	p.byOrder[orderID] = payment.ID

	return payment, nil
}

// Refund returns a captured charge. Refunding an already refunded payment is
// a no-op so compensating commands can be redelivered safely.
func (p *Processor) Refund(paymentID models.ID, amount models.Money) (*Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	payment, ok := p.payments[paymentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}

	if payment.Status == PaymentStatusRefunded {
		return payment, nil
	}

	if amount.Currency != payment.Amount.Currency {
		return nil, ErrCurrencyMismatch
	}
	if amount.Amount > payment.Amount.Amount {
		return nil, ErrRefundExceedsPayment
	}

	payment.Status = PaymentStatusRefunded
	return payment, nil
}

// Find returns a payment by id
func (p *Processor) Find(paymentID models.ID) (*Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	payment, ok := p.payments[paymentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}
