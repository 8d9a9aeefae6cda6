package events

import (
	"time"

	"github.com/ecomflow/order-system/shared/models"
)

// Cross-service message payloads. These are immutable value objects: every
// field is copied data, never a reference into the publishing service.

// OrderItemData is the line-item snapshot carried by order and inventory messages.
type OrderItemData struct {
	ProductID   models.ID    `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int64        `json:"quantity"`
	UnitPrice   models.Money `json:"unit_price"`
}

// ShippingAddressData is the destination carried by shipment commands.
type ShippingAddressData struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order messages

type OrderCreatedData struct {
	OrderID    models.ID       `json:"order_id"`
	CustomerID models.ID       `json:"customer_id"`
	TotalPrice models.Money    `json:"total_price"`
	Items      []OrderItemData `json:"items"`
}

type OrderStatusChangedData struct {
	OrderID   models.ID `json:"order_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderCancellationRequestedData struct {
	OrderID     models.ID `json:"order_id"`
	RequestedBy models.ID `json:"requested_by"`
	Reason      string    `json:"reason"`
}

// Inventory messages

type ReserveInventoryData struct {
	OrderID    models.ID       `json:"order_id"`
	CustomerID models.ID       `json:"customer_id"`
	Items      []OrderItemData `json:"items"`
}

type InventoryReservedData struct {
	OrderID       models.ID `json:"order_id"`
	ReservationID models.ID `json:"reservation_id"`
	Status        string    `json:"status"`
	ReservedAt    time.Time `json:"reserved_at"`
}

type InventoryReservationFailedData struct {
	OrderID  models.ID `json:"order_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type ReleaseInventoryData struct {
	OrderID       models.ID `json:"order_id"`
	ReservationID models.ID `json:"reservation_id"`
}

type InventoryReleasedData struct {
	OrderID       models.ID `json:"order_id"`
	ReservationID models.ID `json:"reservation_id"`
	Status        string    `json:"status"`
	ReleasedAt    time.Time `json:"released_at"`
}

// Payment messages

type ProcessPaymentData struct {
	OrderID       models.ID    `json:"order_id"`
	CustomerID    models.ID    `json:"customer_id"`
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"payment_method"`
}

type PaymentProcessedData struct {
	OrderID       models.ID    `json:"order_id"`
	PaymentID     models.ID    `json:"payment_id"`
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"payment_method"`
	Status        string       `json:"status"`
	ProcessedAt   time.Time    `json:"processed_at"`
}

type PaymentFailedData struct {
	OrderID   models.ID `json:"order_id"`
	PaymentID models.ID `json:"payment_id,omitempty"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

type RefundPaymentData struct {
	OrderID   models.ID    `json:"order_id"`
	PaymentID models.ID    `json:"payment_id"`
	Amount    models.Money `json:"amount"`
	Reason    string       `json:"reason"`
}

type PaymentRefundedData struct {
	OrderID    models.ID    `json:"order_id"`
	PaymentID  models.ID    `json:"payment_id"`
	Amount     models.Money `json:"amount"`
	Status     string       `json:"status"`
	RefundedAt time.Time    `json:"refunded_at"`
}

type PaymentRefundFailedData struct {
	OrderID      models.ID `json:"order_id"`
	PaymentID    models.ID `json:"payment_id"`
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
}

// Shipment messages

type CreateShipmentData struct {
	OrderID    models.ID           `json:"order_id"`
	CustomerID models.ID           `json:"customer_id"`
	Address    ShippingAddressData `json:"address"`
	Items      []ShipmentItemData  `json:"items"`
}

type ShipmentItemData struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

type ShipmentCreatedData struct {
	OrderID    models.ID `json:"order_id"`
	ShipmentID string    `json:"shipment_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type ShipmentFailedData struct {
	OrderID  models.ID `json:"order_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type ShipmentDeliveredData struct {
	OrderID     models.ID `json:"order_id"`
	ShipmentID  string    `json:"shipment_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}
