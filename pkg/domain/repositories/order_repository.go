package repositories

import (
	"context"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// OrderRepository provides access to manufacturing orders
type OrderRepository interface {
	GetOrder(ctx context.Context, tenant entities.TenantID, id entities.OrderID) (*entities.ManufacturingOrder, error)
	ListOrdersByBOM(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.ManufacturingOrder, error)
	InsertOrder(ctx context.Context, tenant entities.TenantID, order *entities.ManufacturingOrder) error
	// UpdateOrder writes order only if the stored status still equals
	// expected, otherwise it returns ErrConflict
	UpdateOrder(ctx context.Context, tenant entities.TenantID, order *entities.ManufacturingOrder, expected entities.OrderStatus) error
}
