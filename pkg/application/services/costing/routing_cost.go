package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

var hundred = decimal.NewFromInt(100)

// RoutingCostProvider supplies per-unit labor and overhead of one BOM level
type RoutingCostProvider interface {
	ConversionCost(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID) (labor, overhead decimal.Decimal, err error)
}

// RoutingCostCalculator derives conversion cost from routing operations:
// labor is run hours times the work center rate, overhead a percentage of labor
type RoutingCostCalculator struct {
	routing repositories.RoutingRepository
}

// NewRoutingCostCalculator creates a calculator over routing storage
func NewRoutingCostCalculator(routing repositories.RoutingRepository) *RoutingCostCalculator {
	return &RoutingCostCalculator{routing: routing}
}

var _ RoutingCostProvider = (*RoutingCostCalculator)(nil)

func (c *RoutingCostCalculator) ConversionCost(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
) (decimal.Decimal, decimal.Decimal, error) {
	ops, err := c.routing.ListRouting(ctx, tenant, bomID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to list routing for BOM %s: %w", bomID, err)
	}

	labor, overhead := decimal.Zero, decimal.Zero
	centers := make(map[entities.WorkCenterID]*entities.WorkCenter)
	for _, op := range ops {
		wc, ok := centers[op.WorkCenterID]
		if !ok {
			wc, err = c.routing.GetWorkCenter(ctx, tenant, op.WorkCenterID)
			if err != nil {
				return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get work center %s: %w", op.WorkCenterID, err)
			}
			centers[op.WorkCenterID] = wc
		}

		opLabor := op.RunHoursPerUnit.Mul(wc.CostPerHour)
		labor = labor.Add(opLabor)
		overhead = overhead.Add(opLabor.Mul(wc.OverheadRatePercent).Div(hundred))
	}
	return labor, overhead, nil
}
