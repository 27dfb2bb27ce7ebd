package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// LoadItems loads items into the repository
func (s *Store) LoadItems(ctx context.Context, tenant entities.TenantID, items []*entities.Item) error {
	for _, item := range items {
		if err := s.SaveItem(ctx, tenant, item); err != nil {
			return err
		}
	}
	return nil
}

// GetItem returns item master data and stock for an item id
func (s *Store) GetItem(_ context.Context, tenant entities.TenantID, id entities.ItemID) (*entities.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.itemIndex[id]
	if !exists {
		return nil, fmt.Errorf("item %s: %w", id, repositories.ErrNotFound)
	}
	item := t.items[index]
	return &item, nil
}

// GetItemByCode returns the item with the given code
func (s *Store) GetItemByCode(_ context.Context, tenant entities.TenantID, code string) (*entities.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	index, exists := t.codeIndex[code]
	if !exists {
		return nil, fmt.Errorf("item code %s: %w", code, repositories.ErrNotFound)
	}
	item := t.items[index]
	return &item, nil
}

// ListItems returns all items ordered by code
func (s *Store) ListItems(_ context.Context, tenant entities.TenantID) ([]*entities.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	items := make([]*entities.Item, 0, len(t.items))
	for i := range t.items {
		item := t.items[i]
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, nil
}

// SaveItem inserts an item or updates its master data
func (s *Store) SaveItem(_ context.Context, tenant entities.TenantID, item *entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(tenant)
	if other, taken := t.codeIndex[item.Code]; taken && t.items[other].ID != item.ID {
		return fmt.Errorf("item code %s already used by %s", item.Code, t.items[other].ID)
	}

	if index, exists := t.itemIndex[item.ID]; exists {
		stored := &t.items[index]
		delete(t.codeIndex, stored.Code)
		stored.Code = item.Code
		stored.Name = item.Name
		stored.UnitOfMeasure = item.UnitOfMeasure
		stored.StandardCost = item.StandardCost
		t.codeIndex[item.Code] = index
		return nil
	}

	stored := *item
	stored.Version = 1
	t.itemIndex[item.ID] = len(t.items)
	t.codeIndex[item.Code] = len(t.items)
	t.items = append(t.items, stored)
	return nil
}
