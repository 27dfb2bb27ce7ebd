package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

const itemColumns = "id, code, name, uom, standard_cost, on_hand, reserved, version"

func scanItem(row rowScanner) (*entities.Item, error) {
	var item entities.Item
	var id string
	if err := row.Scan(&id, &item.Code, &item.Name, &item.UnitOfMeasure,
		&item.StandardCost, &item.OnHand, &item.Reserved, &item.Version); err != nil {
		return nil, err
	}
	item.ID = entities.ItemID(id)
	return &item, nil
}

// GetItem returns item master data and stock for an item id
func (s *Store) GetItem(ctx context.Context, tenant entities.TenantID, id entities.ItemID) (*entities.Item, error) {
	return s.getItem(ctx, s.db, tenant, id, "")
}

func (s *Store) getItem(ctx context.Context, q querier, tenant entities.TenantID, id entities.ItemID, suffix string) (*entities.Item, error) {
	item, err := scanItem(s.queryRow(ctx, q,
		"SELECT "+itemColumns+" FROM items WHERE tenant_id = ? AND id = ?"+suffix,
		string(tenant), string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get item", err)
	}
	return item, nil
}

// GetItemByCode returns the item with the given code
func (s *Store) GetItemByCode(ctx context.Context, tenant entities.TenantID, code string) (*entities.Item, error) {
	item, err := scanItem(s.queryRow(ctx, s.db,
		"SELECT "+itemColumns+" FROM items WHERE tenant_id = ? AND code = ?",
		string(tenant), code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item code %s: %w", code, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("get item by code", err)
	}
	return item, nil
}

// ListItems returns all items ordered by code
func (s *Store) ListItems(ctx context.Context, tenant entities.TenantID) ([]*entities.Item, error) {
	rows, err := s.query(ctx, s.db,
		"SELECT "+itemColumns+" FROM items WHERE tenant_id = ? ORDER BY code", string(tenant))
	if err != nil {
		return nil, s.wrap("list items", err)
	}
	defer rows.Close()

	var items []*entities.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, s.wrap("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("iterate items", err)
	}
	return items, nil
}

// SaveItem inserts an item or updates its master data. Stock counters are
// only written on insert.
func (s *Store) SaveItem(ctx context.Context, tenant entities.TenantID, item *entities.Item) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx, `
			UPDATE items SET code = ?, name = ?, uom = ?, standard_cost = ?
			WHERE tenant_id = ? AND id = ?`,
			item.Code, item.Name, item.UnitOfMeasure, item.StandardCost,
			string(tenant), string(item.ID))
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return nil
		}

		_, err = s.exec(ctx, tx, `
			INSERT INTO items (tenant_id, id, code, name, uom, standard_cost, on_hand, reserved, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			string(tenant), string(item.ID), item.Code, item.Name, item.UnitOfMeasure,
			item.StandardCost, item.OnHand, item.Reserved)
		return err
	})
	if s.dialect.isDuplicateKey(err) {
		return fmt.Errorf("item code %s already used: %w", item.Code, err)
	}
	if err != nil {
		return s.wrap("save item "+string(item.ID), err)
	}
	return nil
}
