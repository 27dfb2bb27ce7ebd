package stagecost

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/costing"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// ActualCostAdapter prices a BOM from the stage costs of its most recently
// completed manufacturing order, scaled per good unit
type ActualCostAdapter struct {
	orders     repositories.OrderRepository
	aggregator *Aggregator
}

// NewActualCostAdapter creates an adapter over completed orders
func NewActualCostAdapter(orders repositories.OrderRepository, aggregator *Aggregator) *ActualCostAdapter {
	return &ActualCostAdapter{orders: orders, aggregator: aggregator}
}

var _ costing.ActualCostProvider = (*ActualCostAdapter)(nil)

func (a *ActualCostAdapter) ActualCost(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
) (*dto.CostBreakdown, error) {
	orders, err := a.orders.ListOrdersByBOM(ctx, tenant, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of BOM %s: %w", bomID, err)
	}

	var latest *entities.ManufacturingOrder
	for _, o := range orders {
		if o.Status != entities.OrderCompleted {
			continue
		}
		if latest == nil || completedAt(o).After(completedAt(latest)) {
			latest = o
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no completed order for BOM %s: %w", bomID, costing.ErrNoActualCost)
	}

	summary, err := a.aggregator.Aggregate(ctx, tenant, latest.ID)
	if err != nil {
		return nil, err
	}
	if !summary.FinalGoodQuantity.IsPositive() {
		return nil, fmt.Errorf("order %s produced no good units: %w", latest.ID, costing.ErrNoActualCost)
	}

	scale := func(v decimal.Decimal) decimal.Decimal {
		return v.Div(summary.FinalGoodQuantity).Mul(quantity)
	}
	breakdown := &dto.CostBreakdown{
		BOMID:        bomID,
		Quantity:     quantity,
		MaterialCost: scale(summary.MaterialCost),
		LaborCost:    scale(summary.LaborCost),
		OverheadCost: scale(summary.OverheadCost),
	}
	breakdown.TotalCost = breakdown.MaterialCost.Add(breakdown.LaborCost).Add(breakdown.OverheadCost)
	breakdown.UnitCost = summary.TotalCost.Div(summary.FinalGoodQuantity)
	return breakdown, nil
}

func completedAt(o *entities.ManufacturingOrder) time.Time {
	if o.EndDate != nil {
		return *o.EndDate
	}
	return o.UpdatedAt
}
