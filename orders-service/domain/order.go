package domain

import (
	"context"
	"time"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/pkg/errors"
)

// OrderStatus represents the customer-facing status of an order
type OrderStatus string

const (
	OrderStatusDraft              OrderStatus = "Draft"
	OrderStatusPending            OrderStatus = "Pending"
	OrderStatusInventoryReserving OrderStatus = "InventoryReserving"
	OrderStatusInventoryReserved  OrderStatus = "InventoryReserved"
	OrderStatusProcessingPayment  OrderStatus = "ProcessingPayment"
	OrderStatusPaid               OrderStatus = "Paid"
	OrderStatusCreatingShipment   OrderStatus = "CreatingShipment"
	OrderStatusShipped            OrderStatus = "Shipped"
	OrderStatusDelivered          OrderStatus = "Delivered"
	OrderStatusCompleted          OrderStatus = "Completed"
	OrderStatusCancelled          OrderStatus = "Cancelled"
	OrderStatusFailed             OrderStatus = "Failed"
)

var (
	ErrNoItems             = errors.New("order must have at least one item")
	ErrInvalidQuantity     = errors.New("item quantity must be at least 1")
	ErrCurrencyMismatch    = errors.New("all items must share the order currency")
	ErrOrderNotDraft       = errors.New("items can only be changed before submission")
	ErrInvalidTransition   = errors.New("illegal order status transition")
	ErrMissingCustomer     = errors.New("customer ID is required")
	ErrOrderNotCancellable = errors.New("order is already terminal")
)

// forwardTransitions is the one-directional happy path. Cancelled and Failed
// are additionally reachable from every non-terminal status; no status is
// revisited once left.
var forwardTransitions = map[OrderStatus]OrderStatus{
	OrderStatusDraft:              OrderStatusPending,
	OrderStatusPending:            OrderStatusInventoryReserving,
	OrderStatusInventoryReserving: OrderStatusInventoryReserved,
	OrderStatusInventoryReserved:  OrderStatusProcessingPayment,
	OrderStatusProcessingPayment:  OrderStatusPaid,
	OrderStatusPaid:               OrderStatusCreatingShipment,
	OrderStatusCreatingShipment:   OrderStatusShipped,
	OrderStatusShipped:            OrderStatusDelivered,
	OrderStatusDelivered:          OrderStatusCompleted,
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusFailed
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled || to == OrderStatusFailed {
		return true
	}
	return forwardTransitions[from] == to
}

// OrderItem is a line item of an order
type OrderItem struct {
	ProductID   models.ID    `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   models.Money `json:"unit_price"`
}

// ShippingAddress is the order's destination
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is the aggregate root. It is a plain data type: legal status moves
// live in the package-level transition table and every mutating operation
// returns the events it raised, leaving transport to the caller.
type Order struct {
	ID              models.ID
	CustomerID      models.ID
	Items           []OrderItem
	Currency        string
	Status          OrderStatus
	ShippingAddress ShippingAddress
	FailureReason   string
	Timestamps      models.Timestamps
	Version         models.Version
}

// NewDraft starts an empty draft order. Items may be added until Submit.
func NewDraft(customerID models.ID, currency string) (*Order, error) {
	if customerID.String() == "" {
		return nil, ErrMissingCustomer
	}

	return &Order{
		ID:         models.GenerateUUID(),
		CustomerID: customerID,
		Currency:   currency,
		Status:     OrderStatusDraft,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// AddItem appends a line item to a draft order.
func (o *Order) AddItem(item OrderItem) error {
	if o.Status != OrderStatusDraft {
		return ErrOrderNotDraft
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice.Currency != o.Currency {
		return ErrCurrencyMismatch
	}

	o.Items = append(o.Items, item)
	o.Timestamps = o.Timestamps.Update()
	return nil
}

// Submit moves a draft order to Pending and raises the OrderCreated event
// carrying the full item snapshot and the computed total.
func (o *Order) Submit(address ShippingAddress) (*events.Event, error) {
	if o.Status != OrderStatusDraft {
		return nil, ErrInvalidTransition
	}
	if len(o.Items) == 0 {
		return nil, ErrNoItems
	}

	o.ShippingAddress = address
	o.Status = OrderStatusPending
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	event := events.NewEvent(o.ID, events.OrderCreatedEvent, events.OrderCreatedData{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		TotalPrice: o.TotalPrice(),
		Items:      o.itemSnapshot(),
	}).WithCorrelationID(o.ID)

	return event, nil
}

// Create validates and builds a submitted order in one step (checkout path).
func Create(customerID models.ID, items []OrderItem, currency string, address ShippingAddress) (*Order, *events.Event, error) {
	order, err := NewDraft(customerID, currency)
	if err != nil {
		return nil, nil, err
	}

	if len(items) == 0 {
		return nil, nil, ErrNoItems
	}
	for _, item := range items {
		if err := order.AddItem(item); err != nil {
			return nil, nil, err
		}
	}

	event, err := order.Submit(address)
	if err != nil {
		return nil, nil, err
	}

	return order, event, nil
}

// UpdateStatus transitions the order and returns the OrderStatusChanged event.
// An unchanged status is a no-op and returns no event.
func (o *Order) UpdateStatus(newStatus OrderStatus, reason string) (*events.Event, error) {
	if o.Status == newStatus {
		return nil, nil
	}
	if !CanTransition(o.Status, newStatus) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, newStatus)
	}

	o.Status = newStatus
	if newStatus == OrderStatusFailed || newStatus == OrderStatusCancelled {
		o.FailureReason = reason
	}
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	event := events.NewEvent(o.ID, events.OrderStatusChangedEvent, events.OrderStatusChangedData{
		OrderID:   o.ID,
		Status:    string(newStatus),
		Reason:    reason,
		ChangedAt: time.Now(),
	}).WithCorrelationID(o.ID)

	return event, nil
}

// TotalPrice recomputes the order total from its items. The total is never
// stored independently of the items.
func (o *Order) TotalPrice() models.Money {
	total := models.NewMoney(0, o.Currency)
	for _, item := range o.Items {
		total.Amount += item.UnitPrice.Multiply(item.Quantity).Amount
	}
	return total
}

func (o *Order) itemSnapshot() []events.OrderItemData {
	snapshot := make([]events.OrderItemData, len(o.Items))
	for i, item := range o.Items {
		snapshot[i] = events.OrderItemData{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return snapshot
}

// OrderRepository persists orders
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
}
