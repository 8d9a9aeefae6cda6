package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/inventory-service/domain"
	"github.com/ecomflow/order-system/shared/models"
)

// StockHandlers exposes stock levels and restocking over HTTP
type StockHandlers struct {
	ledger *domain.Ledger
}

// NewStockHandlers creates new stock handlers
func NewStockHandlers(ledger *domain.Ledger) *StockHandlers {
	return &StockHandlers{ledger: ledger}
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Available int64  `json:"available"`
}

type restockRequest struct {
	Quantity int64 `json:"quantity"`
}

// GetStock returns the available quantity for a product
func (h *StockHandlers) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, err := models.NewID(chi.URLParam(r, "product_id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	available, err := h.ledger.Available(productID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProduct) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stockResponse{ProductID: productID.String(), Available: available})
}

// Restock adds stock for a product
func (h *StockHandlers) Restock(w http.ResponseWriter, r *http.Request) {
	productID, err := models.NewID(chi.URLParam(r, "product_id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity < 1 {
		http.Error(w, "Quantity must be at least 1", http.StatusBadRequest)
		return
	}

	h.ledger.Restock(productID, req.Quantity)

	available, err := h.ledger.Available(productID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stockResponse{ProductID: productID.String(), Available: available})
}

// RegisterRoutes registers stock routes
func (h *StockHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Get("/{product_id}", h.GetStock)
		r.Post("/{product_id}/restock", h.Restock)
	})
}
