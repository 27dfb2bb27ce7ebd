package costing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/application/services/bom"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// ErrNoActualCost is returned by CompareCosts when no actual cost is known
var ErrNoActualCost = errors.New("no actual cost available")

// ActualCostProvider supplies the actual cost of producing quantity units
// of a BOM's assembly. It returns ErrNoActualCost when nothing was produced.
type ActualCostProvider interface {
	ActualCost(ctx context.Context, tenant entities.TenantID, bomID entities.BOMID, quantity decimal.Decimal) (*dto.CostBreakdown, error)
}

// routedLevel is one BOM level that carries its own routing
type routedLevel struct {
	bomID    entities.BOMID
	quantity decimal.Decimal
}

// CostRollupService computes standard cost bottom-up and compares it with actuals
type CostRollupService struct {
	explosion *bom.ExplosionService
	routing   RoutingCostProvider
	actuals   ActualCostProvider
	log       zerolog.Logger
}

// NewCostRollupService creates a rollup service. routing and actuals may be
// nil: without routing labor and overhead are zero, without actuals
// CompareCosts fails.
func NewCostRollupService(
	explosion *bom.ExplosionService,
	routing RoutingCostProvider,
	actuals ActualCostProvider,
	log zerolog.Logger,
) *CostRollupService {
	return &CostRollupService{
		explosion: explosion,
		routing:   routing,
		actuals:   actuals,
		log:       log.With().Str("service", "cost_rollup").Logger(),
	}
}

// StandardCost returns material, labor and overhead for quantity units of bomID.
// Material comes from the exploded leaves; conversion cost is charged for the
// root and for every NORMAL sub-assembly at its required quantity.
func (s *CostRollupService) StandardCost(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
) (*dto.CostBreakdown, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("cost quantity %s: %w", quantity, entities.ErrInvalidQuantity)
	}

	exploded, err := s.explosion.Explode(ctx, tenant, bomID, quantity)
	if err != nil {
		return nil, err
	}

	breakdown := &dto.CostBreakdown{
		BOMID:        bomID,
		Quantity:     quantity,
		MaterialCost: exploded.TotalMaterialCost,
		LaborCost:    decimal.Zero,
		OverheadCost: decimal.Zero,
	}

	if s.routing != nil {
		levels := []routedLevel{{bomID, quantity}}
		for _, sub := range exploded.Subassemblies {
			levels = append(levels, routedLevel{sub.BOMID, sub.RequiredQuantity})
		}

		for _, level := range levels {
			labor, overhead, err := s.routing.ConversionCost(ctx, tenant, level.bomID)
			if err != nil {
				return nil, err
			}
			breakdown.LaborCost = breakdown.LaborCost.Add(labor.Mul(level.quantity))
			breakdown.OverheadCost = breakdown.OverheadCost.Add(overhead.Mul(level.quantity))
		}
	}

	breakdown.TotalCost = breakdown.MaterialCost.Add(breakdown.LaborCost).Add(breakdown.OverheadCost)
	breakdown.UnitCost = breakdown.TotalCost.Div(quantity)

	s.log.Debug().
		Str("tenant", string(tenant)).
		Str("bom_id", string(bomID)).
		Str("quantity", quantity.String()).
		Str("total_cost", breakdown.TotalCost.String()).
		Msg("Standard cost rolled up")

	return breakdown, nil
}

// CompareCosts returns actual minus standard for each cost bucket and the
// total. VariancePercent is undefined where the standard is zero.
func (s *CostRollupService) CompareCosts(
	ctx context.Context,
	tenant entities.TenantID,
	bomID entities.BOMID,
	quantity decimal.Decimal,
) ([]dto.CostVariance, error) {
	standard, err := s.StandardCost(ctx, tenant, bomID, quantity)
	if err != nil {
		return nil, err
	}
	if s.actuals == nil {
		return nil, fmt.Errorf("BOM %s: %w", bomID, ErrNoActualCost)
	}
	actual, err := s.actuals.ActualCost(ctx, tenant, bomID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to get actual cost for BOM %s: %w", bomID, err)
	}

	types := []dto.CostType{dto.CostMaterial, dto.CostLabor, dto.CostOverhead, dto.CostTotal}
	variances := make([]dto.CostVariance, 0, len(types))
	for _, t := range types {
		std := standard.ByType(t)
		act := actual.ByType(t)
		variance := act.Sub(std)
		variances = append(variances, dto.CostVariance{
			CostType:        t,
			StandardCost:    std,
			ActualCost:      act,
			Variance:        variance,
			VariancePercent: entities.Percent(variance, std),
		})
	}
	return variances, nil
}
