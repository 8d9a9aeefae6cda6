package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/shared/events"
	"github.com/ecomflow/order-system/shipment-service/domain"
)

// ShipmentHandlers exposes shipment lookup and the carrier's delivery
// confirmation webhook over HTTP.
type ShipmentHandlers struct {
	dispatcher *domain.Dispatcher
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewShipmentHandlers creates new shipment handlers
func NewShipmentHandlers(dispatcher *domain.Dispatcher, publisher events.Publisher, logger *zap.Logger) *ShipmentHandlers {
	return &ShipmentHandlers{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// GetShipment handles shipment retrieval requests
func (h *ShipmentHandlers) GetShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID := chi.URLParam(r, "id")

	shipment, err := h.dispatcher.Find(shipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shipment)
}

// ConfirmDelivery records a carrier delivery confirmation and publishes the
// ShipmentDelivered event that finishes the order's lifecycle.
func (h *ShipmentHandlers) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	shipmentID := chi.URLParam(r, "id")

	shipment, err := h.dispatcher.MarkDelivered(shipmentID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShipmentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrAlreadyDelivered):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	delivered := events.NewEvent(shipment.OrderID, events.ShipmentDeliveredEvent, events.ShipmentDeliveredData{
		OrderID:     shipment.OrderID,
		ShipmentID:  shipment.ID,
		DeliveredAt: time.Now(),
	}).WithCorrelationID(shipment.OrderID)

	if err := h.publisher.Publish(r.Context(), delivered); err != nil {
		h.logger.Error("failed to publish delivery event",
			zap.String("shipment_id", shipment.ID),
			zap.Error(err))
		http.Error(w, "failed to publish delivery event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(shipment)
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/shipments", func(r chi.Router) {
		r.Get("/{id}", h.GetShipment)
		r.Post("/{id}/delivered", h.ConfirmDelivery)
	})
}
