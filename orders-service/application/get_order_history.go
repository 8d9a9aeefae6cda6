package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shared/models"
)

// GetOrderHistoryQuery represents the query for an order's event history
type GetOrderHistoryQuery struct {
	OrderID string `json:"order_id"`
}

// HistoryEntry is one recorded event in an order's fulfillment run
type HistoryEntry struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// GetOrderHistoryResponse represents the response for the history query
type GetOrderHistoryResponse struct {
	OrderID string         `json:"order_id"`
	Events  []HistoryEntry `json:"events"`
}

// GetOrderHistory reads the append-only event log for one order. The log
// keeps every command and outcome the fulfillment run produced, including
// compensation, so support can reconstruct what happened.
type GetOrderHistory struct {
	eventStore events.EventStore
}

// NewGetOrderHistory creates a new GetOrderHistory use case
func NewGetOrderHistory(eventStore events.EventStore) *GetOrderHistory {
	return &GetOrderHistory{
		eventStore: eventStore,
	}
}

// Execute executes the get order history use case
func (uc *GetOrderHistory) Execute(ctx context.Context, query *GetOrderHistoryQuery) (*GetOrderHistoryResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	recorded, err := uc.eventStore.ByCorrelationID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load order history")
	}

	entries := make([]HistoryEntry, len(recorded))
	for i, event := range recorded {
		entries[i] = HistoryEntry{
			EventID:   event.ID.String(),
			EventType: event.EventType,
			Timestamp: event.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Data:      event.Data,
		}
	}

	return &GetOrderHistoryResponse{
		OrderID: orderID.String(),
		Events:  entries,
	}, nil
}
