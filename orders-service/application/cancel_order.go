package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

// CancelOrderCommand represents the command to cancel an order
type CancelOrderCommand struct {
	OrderID     string `json:"order_id"`
	RequestedBy string `json:"requested_by"`
	Reason      string `json:"reason"`
}

// CancelOrderResponse represents the response after requesting cancellation
type CancelOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CancelOrder use case. Cancellation is asynchronous: this publishes the
// request and the saga orchestrator decides whether compensation still
// applies. An order whose saga already finished cannot be cancelled.
type CancelOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
}

// NewCancelOrder creates a new CancelOrder use case
func NewCancelOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher) *CancelOrder {
	return &CancelOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
	}
}

// Execute executes the cancel order use case
func (uc *CancelOrder) Execute(ctx context.Context, cmd *CancelOrderCommand) (*CancelOrderResponse, error) {
	if cmd.OrderID == "" {
		return nil, errors.New("order ID is required")
	}
	if cmd.RequestedBy == "" {
		return nil, errors.New("requested by is required")
	}
	if cmd.Reason == "" {
		return nil, errors.New("reason is required")
	}

	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	requestedBy, err := models.NewID(cmd.RequestedBy)
	if err != nil {
		return nil, errors.Wrap(err, "invalid requested by ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, errors.New("order not found")
	}

	if order.Status.IsTerminal() {
		return nil, errors.Wrapf(domain.ErrOrderNotCancellable, "order is %s", order.Status)
	}

	event := events.NewEvent(orderID, events.OrderCancellationRequestedEvent, events.OrderCancellationRequestedData{
		OrderID:     orderID,
		RequestedBy: requestedBy,
		Reason:      cmd.Reason,
	}).WithCorrelationID(orderID)

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to publish cancellation request")
	}

	return &CancelOrderResponse{
		OrderID: orderID.String(),
		Status:  "cancellation_requested",
	}, nil
}
