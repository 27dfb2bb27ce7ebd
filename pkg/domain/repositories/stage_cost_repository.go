package repositories

import (
	"context"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// StageCostRepository provides access to per-stage order costs
type StageCostRepository interface {
	GetStageCost(ctx context.Context, tenant entities.TenantID, id string) (*entities.StageCost, error)
	// ListStageCosts returns the order's stages ordered by stage number
	ListStageCosts(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) ([]*entities.StageCost, error)
	// SaveStageCost upserts by (order, stage number)
	SaveStageCost(ctx context.Context, tenant entities.TenantID, stage *entities.StageCost) error
}

// RoutingRepository provides access to work centers and BOM routings
type RoutingRepository interface {
	GetWorkCenter(ctx context.Context, tenant entities.TenantID, id entities.WorkCenterID) (*entities.WorkCenter, error)
	SaveWorkCenter(ctx context.Context, tenant entities.TenantID, wc *entities.WorkCenter) error
	// ListRouting returns the operations of a BOM ordered by sequence
	ListRouting(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.RoutingOperation, error)
	SaveRoutingOperation(ctx context.Context, tenant entities.TenantID, op *entities.RoutingOperation) error
}
