package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// ReserveAll reserves every requirement or nothing
func (s *Store) ReserveAll(
	_ context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	reqs []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	reqs = entities.AggregateRequirements(reqs)

	available := make(map[entities.ItemID]decimal.Decimal, len(reqs))
	for _, req := range reqs {
		index, exists := t.itemIndex[req.ItemID]
		if !exists {
			return nil, fmt.Errorf("item %s: %w", req.ItemID, repositories.ErrNotFound)
		}
		available[req.ItemID] = t.items[index].Available()
	}
	if shortages := entities.CheckShortages(reqs, available); len(shortages) > 0 {
		return nil, &entities.InsufficientStockError{Shortages: shortages}
	}

	reservations := make([]*entities.MaterialReservation, 0, len(reqs))
	for _, req := range reqs {
		item := &t.items[t.itemIndex[req.ItemID]]
		item.Reserved = item.Reserved.Add(req.Quantity)
		item.Version++

		r := entities.NewMaterialReservation(orderID, req)
		t.reservationIndexes[orderID] = append(t.reservationIndexes[orderID], len(t.reservations))
		t.reservations = append(t.reservations, *r)
		reservations = append(reservations, r)
	}
	return reservations, nil
}

// Release frees the order's RESERVED rows, optionally limited to itemIDs
func (s *Store) Release(
	_ context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	itemIDs []entities.ItemID,
) ([]*entities.MaterialReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	filter := make(map[entities.ItemID]bool, len(itemIDs))
	for _, id := range itemIDs {
		filter[id] = true
	}

	now := s.now()
	var released []*entities.MaterialReservation
	for _, index := range t.reservationIndexes[orderID] {
		r := &t.reservations[index]
		if r.Status != entities.ReservationReserved || (len(filter) > 0 && !filter[r.ItemID]) {
			continue
		}
		freed := r.Release(now)
		item := &t.items[t.itemIndex[r.ItemID]]
		item.Reserved = item.Reserved.Sub(freed)
		item.Version++

		cp := *r
		released = append(released, &cp)
	}
	return released, nil
}

// Consume deducts stock against the order's reservations, oldest first
func (s *Store) Consume(
	_ context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	consumptions []entities.MaterialRequirement,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	consumptions = entities.AggregateRequirements(consumptions)

	active := make(map[entities.ItemID][]int)
	for _, index := range t.reservationIndexes[orderID] {
		r := t.reservations[index]
		if r.Status == entities.ReservationReserved {
			active[r.ItemID] = append(active[r.ItemID], index)
		}
	}

	for _, c := range consumptions {
		rows := active[c.ItemID]
		if len(rows) == 0 {
			return &entities.ReservationNotFoundError{OrderID: orderID, ItemID: c.ItemID}
		}
		outstanding := decimal.Zero
		for _, index := range rows {
			outstanding = outstanding.Add(t.reservations[index].Outstanding())
		}
		if c.Quantity.GreaterThan(outstanding) {
			return &entities.OverConsumptionError{
				OrderID:     orderID,
				ItemID:      c.ItemID,
				Requested:   c.Quantity,
				Outstanding: outstanding,
			}
		}
	}

	now := s.now()
	for _, c := range consumptions {
		remaining := c.Quantity
		for _, index := range active[c.ItemID] {
			if !remaining.IsPositive() {
				break
			}
			r := &t.reservations[index]
			take := decimal.Min(remaining, r.Outstanding())
			r.Consume(take, now)
			remaining = remaining.Sub(take)
		}

		item := &t.items[t.itemIndex[c.ItemID]]
		item.OnHand = item.OnHand.Sub(c.Quantity)
		item.Reserved = item.Reserved.Sub(c.Quantity)
		item.Version++
	}
	return nil
}

// ListReservations returns the order's reservations in creation order
func (s *Store) ListReservations(_ context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.MaterialReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	indexes := t.reservationIndexes[orderID]
	reservations := make([]*entities.MaterialReservation, 0, len(indexes))
	for _, index := range indexes {
		r := t.reservations[index]
		reservations = append(reservations, &r)
	}
	return reservations, nil
}

// AdjustOnHand adds delta to the item's on-hand quantity
func (s *Store) AdjustOnHand(_ context.Context, tenant entities.TenantID, itemID entities.ItemID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.itemIndex[itemID]
	if !exists {
		return fmt.Errorf("item %s: %w", itemID, repositories.ErrNotFound)
	}
	item := &t.items[index]
	next := item.OnHand.Add(delta)
	if next.LessThan(item.Reserved) {
		return fmt.Errorf("on-hand %s for item %s would fall below reserved %s", next, itemID, item.Reserved)
	}
	item.OnHand = next
	item.Version++
	return nil
}
