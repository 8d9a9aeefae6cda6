package domain

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/shared/models"
)

// ReservationStatus is the lifecycle of a stock reservation
type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "Reserved"
	ReservationStatusReleased ReservationStatus = "Released"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ReservedItem is one reserved line
type ReservedItem struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// Reservation holds stock for one order until the saga completes or
// compensates. At most one reservation exists per order.
type Reservation struct {
	ID         models.ID         `json:"id"`
	OrderID    models.ID         `json:"order_id"`
	Items      []ReservedItem    `json:"items"`
	Status     ReservationStatus `json:"status"`
	ReservedAt time.Time         `json:"reserved_at"`
}

// Ledger tracks available stock per product and the reservations held
// against it. Reserve is idempotent on the order id: a redelivered command
// returns the existing reservation instead of double-holding stock.
type Ledger struct {
	mu           sync.Mutex
	stock        map[models.ID]int64
	reservations map[models.ID]*Reservation
	byOrder      map[models.ID]models.ID
}

// NewLedger creates a ledger with the given opening stock
func NewLedger(stock map[models.ID]int64) *Ledger {
	owned := make(map[models.ID]int64, len(stock))
	for productID, quantity := range stock {
		owned[productID] = quantity
	}
	return &Ledger{
		stock:        owned,
		reservations: make(map[models.ID]*Reservation),
		byOrder:      make(map[models.ID]models.ID),
	}
}

// Available returns the unreserved quantity for a product
func (l *Ledger) Available(productID models.ID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	quantity, ok := l.stock[productID]
	if !ok {
		return 0, ErrUnknownProduct
	}
	return quantity, nil
}

// Restock adds quantity for a product, creating it if unknown
func (l *Ledger) Restock(productID models.ID, quantity int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[productID] += quantity
}

// Reserve holds stock for every item of an order, all or nothing. Calling it
// again for the same order returns the already-held reservation.
func (l *Ledger) Reserve(orderID models.ID, items []ReservedItem) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if reservationID, ok := l.byOrder[orderID]; ok {
		return l.reservations[reservationID], nil
	}

	for _, item := range items {
		available, ok := l.stock[item.ProductID]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownProduct, "product %s", item.ProductID)
		}
		if available < item.Quantity {
			return nil, errors.Wrapf(ErrInsufficientStock, "product %s has %d, need %d",
				item.ProductID, available, item.Quantity)
		}
	}

	for _, item := range items {
		l.stock[item.ProductID] -= item.Quantity
	}

	reservation := &Reservation{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		Items:      append([]ReservedItem(nil), items...),
		Status:     ReservationStatusReserved,
		ReservedAt: time.Now(),
	}
	l.reservations[reservation.ID] = reservation
	l.byOrder[orderID] = reservation.ID

	return reservation, nil
}

// Release returns a reservation's stock to the pool. Releasing an already
// released reservation is a no-op, so compensation can be redelivered safely.
func (l *Ledger) Release(reservationID models.ID) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reservation, ok := l.reservations[reservationID]
	if !ok {
		return nil, ErrReservationNotFound
	}

	if reservation.Status == ReservationStatusReleased {
		return reservation, nil
	}

	for _, item := range reservation.Items {
		l.stock[item.ProductID] += item.Quantity
	}
	reservation.Status = ReservationStatusReleased

	return reservation, nil
}
