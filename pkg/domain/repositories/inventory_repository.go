package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// InventoryRepository owns the stock counters and reservation rows.
// Every method is a single atomic storage operation.
type InventoryRepository interface {
	// ReserveAll checks every requirement against available stock and either
	// creates one RESERVED row per requirement or nothing. Shortages are
	// reported together as *entities.InsufficientStockError; a lost
	// optimistic-lock race returns ErrConflict.
	ReserveAll(
		ctx context.Context,
		tenant entities.TenantID,
		orderID entities.OrderID,
		reqs []entities.MaterialRequirement,
	) ([]*entities.MaterialReservation, error)

	// Release moves the order's RESERVED rows (limited to itemIDs when given)
	// to RELEASED and returns the rows it changed
	Release(
		ctx context.Context,
		tenant entities.TenantID,
		orderID entities.OrderID,
		itemIDs []entities.ItemID,
	) ([]*entities.MaterialReservation, error)

	// Consume deducts quantities from on-hand stock against the order's
	// RESERVED rows, oldest first. All consumptions succeed or none do.
	Consume(
		ctx context.Context,
		tenant entities.TenantID,
		orderID entities.OrderID,
		consumptions []entities.MaterialRequirement,
	) error

	ListReservations(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.MaterialReservation, error)

	// AdjustOnHand adds delta to on-hand stock; it refuses to drop on-hand
	// below the reserved quantity
	AdjustOnHand(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID, delta decimal.Decimal) error
}
