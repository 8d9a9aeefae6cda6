package infrastructure

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/models"
)

// MemoryOrderRepository keeps orders in a map. Used in local mode and
// in tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[models.ID]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[models.ID]domain.Order)}
}

func (r *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return errors.Errorf("order %s already exists", order.ID)
	}

	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return errors.Errorf("order %s not found", order.ID)
	}
	if stored.Version.Value != order.Version.Value-1 {
		return errors.Errorf("order %s was modified concurrently", order.ID)
	}

	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, nil
	}

	clone := cloneOrder(&stored)
	return &clone, nil
}

func cloneOrder(order *domain.Order) domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	return clone
}
