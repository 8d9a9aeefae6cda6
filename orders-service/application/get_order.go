package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/models"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string `json:"order_id"`
}

// OrderItemView is one line item in the response
type OrderItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// GetOrderResponse represents the response for getting an order
type GetOrderResponse struct {
	OrderID         string                 `json:"order_id"`
	CustomerID      string                 `json:"customer_id"`
	Status          string                 `json:"status"`
	Items           []OrderItemView        `json:"items"`
	TotalAmount     int64                  `json:"total_amount"`
	Currency        string                 `json:"currency"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	FailureReason   string                 `json:"failure_reason,omitempty"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{
		orderRepository: orderRepository,
	}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*GetOrderResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	if order == nil {
		return nil, errors.New("order not found")
	}

	items := make([]OrderItemView, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemView{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Amount,
		}
	}

	total := order.TotalPrice()
	return &GetOrderResponse{
		OrderID:     order.ID.String(),
		CustomerID:  order.CustomerID.String(),
		Status:      string(order.Status),
		Items:       items,
		TotalAmount: total.Amount,
		Currency:    total.Currency,
		ShippingAddress: ShippingAddressRequest{
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		FailureReason: order.FailureReason,
		CreatedAt:     order.Timestamps.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     order.Timestamps.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}
