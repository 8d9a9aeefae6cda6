package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/orders-service/mocks"
	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

func TestCancelOrder_Execute(t *testing.T) {
	validOrderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	validCustomerID := models.ID("550e8400-e29b-41d4-a716-446655440010")

	pendingOrder := func(status domain.OrderStatus) *domain.Order {
		return &domain.Order{
			ID:         validOrderID,
			CustomerID: validCustomerID,
			Currency:   "USD",
			Status:     status,
			Timestamps: models.NewTimestamps(),
			Version:    models.NewVersion(),
		}
	}

	tests := []struct {
		name          string
		command       *CancelOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "cancellation request published for in-flight order",
			command: &CancelOrderCommand{
				OrderID:     validOrderID.String(),
				RequestedBy: validCustomerID.String(),
				Reason:      "changed my mind",
			},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, validOrderID).
					Return(pendingOrder(domain.OrderStatusProcessingPayment), nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					return evt.EventType == events.OrderCancellationRequestedEvent && evt.CorrelationID == validOrderID
				})).Return(nil).Once()
			},
		},
		{
			name: "completed order cannot be cancelled",
			command: &CancelOrderCommand{
				OrderID:     validOrderID.String(),
				RequestedBy: validCustomerID.String(),
				Reason:      "too late",
			},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, validOrderID).
					Return(pendingOrder(domain.OrderStatusCompleted), nil).Once()
			},
			expectedError: "order is Completed",
		},
		{
			name: "unknown order",
			command: &CancelOrderCommand{
				OrderID:     validOrderID.String(),
				RequestedBy: validCustomerID.String(),
				Reason:      "whatever",
			},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, validOrderID).Return(nil, nil).Once()
			},
			expectedError: "order not found",
		},
		{
			name: "missing reason",
			command: &CancelOrderCommand{
				OrderID:     validOrderID.String(),
				RequestedBy: validCustomerID.String(),
			},
			setupMocks:    func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {},
			expectedError: "reason is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			mockPublisher := mocks.NewMockPublisher(t)
			tt.setupMocks(mockRepo, mockPublisher)

			uc := NewCancelOrder(mockRepo, mockPublisher)
			result, err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "cancellation_requested", result.Status)
		})
	}
}
