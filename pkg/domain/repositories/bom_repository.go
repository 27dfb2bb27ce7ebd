package repositories

import (
	"context"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// BOMRepository provides access to BOM headers and lines
type BOMRepository interface {
	GetHeader(ctx context.Context, tenant entities.TenantID, id entities.BOMID) (*entities.BOMHeader, error)
	// ListHeadersForItem returns every version of the BOMs producing itemID
	ListHeadersForItem(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error)
	// ListHeadersUsingItem returns headers with at least one line consuming itemID
	ListHeadersUsingItem(ctx context.Context, tenant entities.TenantID, itemID entities.ItemID) ([]*entities.BOMHeader, error)
	GetLine(ctx context.Context, tenant entities.TenantID, lineID string) (*entities.BOMLine, error)
	// GetLines returns the lines of a header ordered by sequence
	GetLines(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) ([]*entities.BOMLine, error)
	SaveHeader(ctx context.Context, tenant entities.TenantID, header *entities.BOMHeader) error
	SaveLine(ctx context.Context, tenant entities.TenantID, line *entities.BOMLine) error
}
