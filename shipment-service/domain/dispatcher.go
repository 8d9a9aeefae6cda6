package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/shared/models"
)

// ShipmentStatus is the lifecycle of a shipment
type ShipmentStatus string

const (
	ShipmentStatusCreated   ShipmentStatus = "Created"
	ShipmentStatusDelivered ShipmentStatus = "Delivered"
)

var (
	ErrInvalidAddress   = errors.New("invalid shipping address")
	ErrNoItems          = errors.New("shipment needs at least one item")
	ErrShipmentNotFound = errors.New("shipment not found")
	ErrAlreadyDelivered = errors.New("shipment already delivered")
)

// Address is the shipment destination
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ShipmentItem is one packed line
type ShipmentItem struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// Shipment is one dispatched package for an order
type Shipment struct {
	ID          string         `json:"id"`
	OrderID     models.ID      `json:"order_id"`
	CustomerID  models.ID      `json:"customer_id"`
	Address     Address        `json:"address"`
	Items       []ShipmentItem `json:"items"`
	Status      ShipmentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}

// Dispatcher creates shipments. Shipment ids follow the carrier manifest
// format SHIP-YYYYMMDD-NNNN where NNNN is a daily sequence. Create is
// idempotent on the order id.
type Dispatcher struct {
	mu        sync.Mutex
	shipments map[string]*Shipment
	byOrder   map[models.ID]string
	seqDay    string
	seq       int
	now       func() time.Time
}

// NewDispatcher creates a new shipment dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		shipments: make(map[string]*Shipment),
		byOrder:   make(map[models.ID]string),
		now:       time.Now,
	}
}

// Create validates the destination and dispatches a shipment. A repeated
// command for the same order returns the existing shipment.
func (d *Dispatcher) Create(orderID, customerID models.ID, address Address, items []ShipmentItem) (*Shipment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if shipmentID, ok := d.byOrder[orderID]; ok {
		return d.shipments[shipmentID], nil
	}

	if err := validateAddress(address); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	shipment := &Shipment{
		ID:         d.nextID(),
		OrderID:    orderID,
		CustomerID: customerID,
		Address:    address,
		Items:      append([]ShipmentItem(nil), items...),
		Status:     ShipmentStatusCreated,
		CreatedAt:  d.now(),
	}
	d.shipments[shipment.ID] = shipment
	d.byOrder[orderID] = shipment.ID

	return shipment, nil
}

// MarkDelivered records the carrier's delivery confirmation
func (d *Dispatcher) MarkDelivered(shipmentID string) (*Shipment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	shipment, ok := d.shipments[shipmentID]
	if !ok {
		return nil, ErrShipmentNotFound
	}
	if shipment.Status == ShipmentStatusDelivered {
		return nil, ErrAlreadyDelivered
	}

	now := d.now()
	shipment.Status = ShipmentStatusDelivered
	shipment.DeliveredAt = &now

	return shipment, nil
}

// Find returns a shipment by id
func (d *Dispatcher) Find(shipmentID string) (*Shipment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	shipment, ok := d.shipments[shipmentID]
	if !ok {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// nextID allocates the next manifest id, resetting the sequence daily.
// Caller holds the mutex.
func (d *Dispatcher) nextID() string {
	day := d.now().Format("20060102")
	if day != d.seqDay {
		d.seqDay = day
		d.seq = 0
	}
	d.seq++
	return fmt.Sprintf("SHIP-%s-%04d", day, d.seq)
}

func validateAddress(address Address) error {
	if address.Street == "" {
		return errors.Wrap(ErrInvalidAddress, "street is required")
	}
	if address.City == "" {
		return errors.Wrap(ErrInvalidAddress, "city is required")
	}
	if address.PostalCode == "" {
		return errors.Wrap(ErrInvalidAddress, "postal code is required")
	}
	if address.Country == "" {
		return errors.Wrap(ErrInvalidAddress, "country is required")
	}
	return nil
}
