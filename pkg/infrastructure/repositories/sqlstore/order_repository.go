package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

const orderColumns = `id, item_id, bom_id, planned_quantity, status, start_date, end_date,
	under_reserved, created_at, updated_at`

func scanOrder(row rowScanner) (*entities.ManufacturingOrder, error) {
	var (
		o                         entities.ManufacturingOrder
		id, itemID, bomID, status string
		created, updated          string
		start, end                sql.NullString
		underReserved             int
	)
	if err := row.Scan(&id, &itemID, &bomID, &o.PlannedQuantity, &status, &start, &end,
		&underReserved, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	o.ID = entities.OrderID(id)
	o.ItemID = entities.ItemID(itemID)
	o.BOMID = entities.BOMID(bomID)
	o.UnderReserved = underReserved != 0
	if o.Status, err = entities.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if o.StartDate, err = parseTimePtr(start); err != nil {
		return nil, err
	}
	if o.EndDate, err = parseTimePtr(end); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder returns a manufacturing order by id
func (s *Store) GetOrder(ctx context.Context, tenant entities.TenantID, id entities.OrderID) (*entities.ManufacturingOrder, error) {
	o, err := scanOrder(s.queryRow(ctx, s.db,
		"SELECT "+orderColumns+" FROM manufacturing_orders WHERE tenant_id = ? AND id = ?",
		string(tenant), string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get order", err)
	}
	return o, nil
}

// ListOrdersByBOM returns the orders built from bomID, oldest first
func (s *Store) ListOrdersByBOM(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.ManufacturingOrder, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+orderColumns+" FROM manufacturing_orders WHERE tenant_id = ? AND bom_id = ? ORDER BY created_at, id",
		string(tenant), string(bomID))
	if err != nil {
		return nil, s.wrap("list orders", err)
	}
	defer rows.Close()

	var orders []*entities.ManufacturingOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, s.wrap("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate orders", err)
	}
	return orders, nil
}

// InsertOrder stores a new order
func (s *Store) InsertOrder(ctx context.Context, tenant entities.TenantID, order *entities.ManufacturingOrder) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO manufacturing_orders (tenant_id, id, item_id, bom_id, planned_quantity, status,
			start_date, end_date, under_reserved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tenant), string(order.ID), string(order.ItemID), string(order.BOMID),
		order.PlannedQuantity, order.Status.String(), formatTimePtr(order.StartDate),
		formatTimePtr(order.EndDate), boolToInt(order.UnderReserved),
		formatTime(order.CreatedAt), formatTime(order.UpdatedAt))
	if s.dialect.isDuplicateKey(err) {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	if err != nil {
		return s.wrap("insert order "+string(order.ID), err)
	}
	return nil
}

// UpdateOrder replaces an order whose stored status still equals expected
func (s *Store) UpdateOrder(
	ctx context.Context,
	tenant entities.TenantID,
	order *entities.ManufacturingOrder,
	expected entities.OrderStatus,
) error {
	result, err := s.exec(ctx, s.db, `
		UPDATE manufacturing_orders SET item_id = ?, bom_id = ?, planned_quantity = ?, status = ?,
			start_date = ?, end_date = ?, under_reserved = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND status = ?`,
		string(order.ItemID), string(order.BOMID), order.PlannedQuantity, order.Status.String(),
		formatTimePtr(order.StartDate), formatTimePtr(order.EndDate), boolToInt(order.UnderReserved),
		formatTime(order.UpdatedAt),
		string(tenant), string(order.ID), expected.String())
	if err != nil {
		return s.wrap("update order "+string(order.ID), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return s.wrap("update order "+string(order.ID), err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.GetOrder(ctx, tenant, order.ID)
	if err != nil {
		return err
	}
	return fmt.Errorf("order %s is %s, expected %s: %w", order.ID, current.Status, expected, repositories.ErrConflict)
}
