package memory

import (
	"context"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// GetOrder returns a manufacturing order by id
func (s *Store) GetOrder(_ context.Context, tenant entities.TenantID, id entities.OrderID) (*entities.ManufacturingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.orderIndex[id]
	if !exists {
		return nil, fmt.Errorf("order %s: %w", id, repositories.ErrNotFound)
	}
	return copyOrder(t.orders[index]), nil
}

// ListOrdersByBOM returns the orders built from bomID
func (s *Store) ListOrdersByBOM(_ context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.ManufacturingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	var orders []*entities.ManufacturingOrder
	for _, o := range t.orders {
		if o.BOMID == bomID {
			orders = append(orders, copyOrder(o))
		}
	}
	return orders, nil
}

// InsertOrder stores a new order
func (s *Store) InsertOrder(_ context.Context, tenant entities.TenantID, order *entities.ManufacturingOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	if _, exists := t.orderIndex[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	t.orderIndex[order.ID] = len(t.orders)
	t.orders = append(t.orders, *copyOrder(*order))
	return nil
}

// UpdateOrder replaces an order whose stored status still equals expected
func (s *Store) UpdateOrder(
	_ context.Context,
	tenant entities.TenantID,
	order *entities.ManufacturingOrder,
	expected entities.OrderStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.orderIndex[order.ID]
	if !exists {
		return fmt.Errorf("order %s: %w", order.ID, repositories.ErrNotFound)
	}
	if t.orders[index].Status != expected {
		return fmt.Errorf("order %s is %s, expected %s: %w",
			order.ID, t.orders[index].Status, expected, repositories.ErrConflict)
	}
	t.orders[index] = *copyOrder(*order)
	return nil
}

func copyOrder(o entities.ManufacturingOrder) *entities.ManufacturingOrder {
	if o.StartDate != nil {
		start := *o.StartDate
		o.StartDate = &start
	}
	if o.EndDate != nil {
		end := *o.EndDate
		o.EndDate = &end
	}
	return &o
}
