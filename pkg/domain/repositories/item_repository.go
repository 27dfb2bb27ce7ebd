package repositories

import (
	"context"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// ItemRepository provides access to item master data
type ItemRepository interface {
	GetItem(ctx context.Context, tenant entities.TenantID, id entities.ItemID) (*entities.Item, error)
	GetItemByCode(ctx context.Context, tenant entities.TenantID, code string) (*entities.Item, error)
	ListItems(ctx context.Context, tenant entities.TenantID) ([]*entities.Item, error)
	// SaveItem upserts master data. Stock counters are only written on insert;
	// afterwards they change through InventoryRepository.
	SaveItem(ctx context.Context, tenant entities.TenantID, item *entities.Item) error
}
