package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

const reservationColumns = `id, order_id, item_id, quantity_reserved, quantity_consumed, unit_cost,
	status, created_at, updated_at`

func scanReservation(row rowScanner) (*entities.MaterialReservation, error) {
	var (
		r                                         entities.MaterialReservation
		orderID, itemID, status, created, updated string
	)
	if err := row.Scan(&r.ID, &orderID, &itemID, &r.QuantityReserved, &r.QuantityConsumed,
		&r.UnitCost, &status, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	r.OrderID = entities.OrderID(orderID)
	r.ItemID = entities.ItemID(itemID)
	if r.Status, err = entities.ParseReservationStatus(status); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}

// listReservations returns the order's rows oldest first. With activeOnly
// only RESERVED rows are returned and, outside SQLite, locked.
func (s *Store) listReservations(
	ctx context.Context,
	q querier,
	tenant entities.TenantID,
	orderID entities.OrderID,
	activeOnly bool,
) ([]*entities.MaterialReservation, error) {
	query := "SELECT " + reservationColumns + " FROM material_reservations WHERE tenant_id = ? AND order_id = ?"
	args := []any{string(tenant), string(orderID)}
	if activeOnly {
		query += " AND status = ?"
		args = append(args, entities.ReservationReserved.String())
	}
	query += " ORDER BY created_at, line_no"
	if activeOnly {
		query += s.dialect.forUpdate()
	}

	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return nil, s.wrap("list reservations", err)
	}
	defer rows.Close()

	var reservations []*entities.MaterialReservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, s.wrap("scan reservation", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate reservations", err)
	}
	return reservations, nil
}

// setStock writes new stock counters if the row version is unchanged since
// item was read, and advances item to the new version
func (s *Store) setStock(ctx context.Context, tx *sql.Tx, tenant entities.TenantID, item *entities.Item, onHand, reserved decimal.Decimal) error {
	result, err := s.exec(ctx, tx, `
		UPDATE items SET on_hand = ?, reserved = ?, version = version + 1
		WHERE tenant_id = ? AND id = ? AND version = ?`,
		onHand, reserved, string(tenant), string(item.ID), item.Version)
	if err != nil {
		return s.wrap("update stock", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return s.wrap("update stock", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s changed since version %d: %w", item.ID, item.Version, repositories.ErrConflict)
	}
	item.OnHand = onHand
	item.Reserved = reserved
	item.Version++
	return nil
}

func (s *Store) updateReservation(ctx context.Context, tx *sql.Tx, tenant entities.TenantID, r *entities.MaterialReservation) error {
	_, err := s.exec(ctx, tx, `
		UPDATE material_reservations SET quantity_consumed = ?, status = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		r.QuantityConsumed, r.Status.String(), formatTime(r.UpdatedAt), string(tenant), r.ID)
	if err != nil {
		return s.wrap("update reservation "+r.ID, err)
	}
	return nil
}

// lockItems reads and locks the stock rows of ids in ascending id order, so
// transactions touching overlapping items always queue on the same first row
func (s *Store) lockItems(ctx context.Context, tx *sql.Tx, tenant entities.TenantID, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	sorted := append([]entities.ItemID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	items := make(map[entities.ItemID]*entities.Item, len(sorted))
	for _, id := range sorted {
		if _, locked := items[id]; locked {
			continue
		}
		item, err := s.getItem(ctx, tx, tenant, id, s.dialect.forUpdate())
		if err != nil {
			return nil, err
		}
		items[id] = item
	}
	return items, nil
}

// ReserveAll reserves every requirement or nothing. Stock rows are read
// inside the transaction and written back with a version check.
func (s *Store) ReserveAll(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	reqs []entities.MaterialRequirement,
) ([]*entities.MaterialReservation, error) {
	reqs = entities.AggregateRequirements(reqs)

	var reservations []*entities.MaterialReservation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids := make([]entities.ItemID, 0, len(reqs))
		for _, req := range reqs {
			ids = append(ids, req.ItemID)
		}
		items, err := s.lockItems(ctx, tx, tenant, ids)
		if err != nil {
			return err
		}
		available := make(map[entities.ItemID]decimal.Decimal, len(items))
		for id, item := range items {
			available[id] = item.Available()
		}
		if shortages := entities.CheckShortages(reqs, available); len(shortages) > 0 {
			return &entities.InsufficientStockError{Shortages: shortages}
		}

		now := s.now()
		reservations = make([]*entities.MaterialReservation, 0, len(reqs))
		for i, req := range reqs {
			item := items[req.ItemID]
			if err := s.setStock(ctx, tx, tenant, item, item.OnHand, item.Reserved.Add(req.Quantity)); err != nil {
				return err
			}

			r := entities.NewMaterialReservation(orderID, req)
			r.CreatedAt, r.UpdatedAt = now, now
			_, err := s.exec(ctx, tx, `
				INSERT INTO material_reservations (tenant_id, id, order_id, line_no, item_id,
					quantity_reserved, quantity_consumed, unit_cost, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(tenant), r.ID, string(orderID), i, string(r.ItemID),
				r.QuantityReserved, r.QuantityConsumed, r.UnitCost, r.Status.String(),
				formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
			if err != nil {
				return s.wrap("insert reservation", err)
			}
			reservations = append(reservations, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// Release frees the order's RESERVED rows, optionally limited to itemIDs
func (s *Store) Release(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	itemIDs []entities.ItemID,
) ([]*entities.MaterialReservation, error) {
	filter := make(map[entities.ItemID]bool, len(itemIDs))
	for _, id := range itemIDs {
		filter[id] = true
	}

	var released []*entities.MaterialReservation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		active, err := s.listReservations(ctx, tx, tenant, orderID, true)
		if err != nil {
			return err
		}

		now := s.now()
		freed := make(map[entities.ItemID]decimal.Decimal)
		var order []entities.ItemID
		released = nil
		for _, r := range active {
			if len(filter) > 0 && !filter[r.ItemID] {
				continue
			}
			qty := r.Release(now)
			if err := s.updateReservation(ctx, tx, tenant, r); err != nil {
				return err
			}
			if _, seen := freed[r.ItemID]; !seen {
				order = append(order, r.ItemID)
			}
			freed[r.ItemID] = freed[r.ItemID].Add(qty)
			released = append(released, r)
		}

		items, err := s.lockItems(ctx, tx, tenant, order)
		if err != nil {
			return err
		}
		for _, itemID := range order {
			item := items[itemID]
			if err := s.setStock(ctx, tx, tenant, item, item.OnHand, item.Reserved.Sub(freed[itemID])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// Consume deducts stock against the order's reservations, oldest first
func (s *Store) Consume(
	ctx context.Context,
	tenant entities.TenantID,
	orderID entities.OrderID,
	consumptions []entities.MaterialRequirement,
) error {
	consumptions = entities.AggregateRequirements(consumptions)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.listReservations(ctx, tx, tenant, orderID, true)
		if err != nil {
			return err
		}
		active := make(map[entities.ItemID][]*entities.MaterialReservation)
		for _, r := range rows {
			active[r.ItemID] = append(active[r.ItemID], r)
		}

		for _, c := range consumptions {
			held := active[c.ItemID]
			if len(held) == 0 {
				return &entities.ReservationNotFoundError{OrderID: orderID, ItemID: c.ItemID}
			}
			outstanding := decimal.Zero
			for _, r := range held {
				outstanding = outstanding.Add(r.Outstanding())
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

		ids := make([]entities.ItemID, 0, len(consumptions))
		for _, c := range consumptions {
			ids = append(ids, c.ItemID)
		}
		items, err := s.lockItems(ctx, tx, tenant, ids)
		if err != nil {
			return err
		}

		now := s.now()
		for _, c := range consumptions {
			remaining := c.Quantity
			for _, r := range active[c.ItemID] {
				if !remaining.IsPositive() {
					break
				}
				take := decimal.Min(remaining, r.Outstanding())
				r.Consume(take, now)
				if err := s.updateReservation(ctx, tx, tenant, r); err != nil {
					return err
				}
				remaining = remaining.Sub(take)
			}

			item := items[c.ItemID]
			if err := s.setStock(ctx, tx, tenant, item, item.OnHand.Sub(c.Quantity), item.Reserved.Sub(c.Quantity)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListReservations returns the order's reservations in creation order
func (s *Store) ListReservations(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.MaterialReservation, error) {
	return s.listReservations(ctx, s.db, tenant, orderID, false)
}

// AdjustOnHand adds delta to the item's on-hand quantity
func (s *Store) AdjustOnHand(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID, delta decimal.Decimal) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := s.getItem(ctx, tx, tenant, itemID, s.dialect.forUpdate())
		if err != nil {
			return err
		}
		next := item.OnHand.Add(delta)
		if next.LessThan(item.Reserved) {
			return fmt.Errorf("on-hand %s for item %s would fall below reserved %s", next, itemID, item.Reserved)
		}
		return s.setStock(ctx, tx, tenant, item, next, item.Reserved)
	})
}
