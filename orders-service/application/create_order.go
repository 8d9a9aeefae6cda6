package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	CustomerID      string                 `json:"customer_id"`
	Currency        string                 `json:"currency"`
	Items           []CreateOrderItem      `json:"items"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
}

// CreateOrderItem is one requested line item
type CreateOrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// ShippingAddressRequest is the destination given at checkout
type ShippingAddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// CreateOrder use case. Creating an order is what starts the fulfillment
// saga: the OrderCreated event published here is the orchestrator's trigger.
type CreateOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	customerID, err := models.NewID(cmd.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid customer ID")
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		productID, err := models.NewID(item.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid product ID at position %d", i)
		}
		items[i] = domain.OrderItem{
			ProductID:   productID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   models.NewMoney(item.UnitPrice, cmd.Currency),
		}
	}

	address := domain.ShippingAddress{
		Street:     cmd.ShippingAddress.Street,
		City:       cmd.ShippingAddress.City,
		State:      cmd.ShippingAddress.State,
		PostalCode: cmd.ShippingAddress.PostalCode,
		Country:    cmd.ShippingAddress.Country,
	}

	order, created, err := domain.Create(customerID, items, cmd.Currency, address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, created); err != nil {
		return nil, errors.Wrap(err, "failed to publish order created event")
	}

	total := order.TotalPrice()
	return &CreateOrderResponse{
		OrderID:     order.ID.String(),
		Status:      string(order.Status),
		TotalAmount: total.Amount,
		Currency:    total.Currency,
	}, nil
}

// validateCommand validates the create order command
func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}

	if cmd.Currency == "" {
		return errors.New("currency is required")
	}

	if len(cmd.Items) == 0 {
		return errors.New("at least one item is required")
	}

	for i, item := range cmd.Items {
		if item.ProductID == "" {
			return errors.Errorf("product ID is required at position %d", i)
		}
		if item.Quantity < 1 {
			return errors.Errorf("quantity must be at least 1 at position %d", i)
		}
		if item.UnitPrice < 0 {
			return errors.Errorf("unit price cannot be negative at position %d", i)
		}
	}

	if cmd.ShippingAddress.Street == "" || cmd.ShippingAddress.City == "" || cmd.ShippingAddress.Country == "" {
		return errors.New("shipping address requires street, city and country")
	}

	return nil
}
