package stagecost

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/application/dto"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
)

// ErrStageCompleted is returned when a COMPLETED stage would be overwritten
var ErrStageCompleted = errors.New("stage cost is completed")

// Aggregator records per-stage costs of manufacturing orders and sums them
// into order totals
type Aggregator struct {
	stages repositories.StageCostRepository
	orders repositories.OrderRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewAggregator creates a new stage cost aggregator
func NewAggregator(stages repositories.StageCostRepository, orders repositories.OrderRepository, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		stages: stages,
		orders: orders,
		log:    log.With().Str("service", "stage_cost").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordStage validates stage, derives its totals and upserts it by order
// and stage number
func (a *Aggregator) RecordStage(ctx context.Context, tenant entities.TenantID, stage *entities.StageCost) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	if _, err := a.orders.GetOrder(ctx, tenant, stage.OrderID); err != nil {
		return fmt.Errorf("failed to get order %s: %w", stage.OrderID, err)
	}

	existing, err := a.stages.ListStageCosts(ctx, tenant, stage.OrderID)
	if err != nil {
		return fmt.Errorf("failed to list stages of order %s: %w", stage.OrderID, err)
	}
	for _, e := range existing {
		if e.StageNumber == stage.StageNumber && e.Status == entities.StageCompleted {
			return fmt.Errorf("stage %d of order %s: %w", stage.StageNumber, stage.OrderID, ErrStageCompleted)
		}
	}

	stage.Recalculate()
	stage.UpdatedAt = a.now()
	if err := a.stages.SaveStageCost(ctx, tenant, stage); err != nil {
		return fmt.Errorf("failed to save stage %d of order %s: %w", stage.StageNumber, stage.OrderID, err)
	}

	a.log.Debug().
		Str("tenant", string(tenant)).
		Str("order_id", string(stage.OrderID)).
		Int("stage", stage.StageNumber).
		Str("total_cost", stage.TotalCost.String()).
		Msg("Stage cost recorded")
	return nil
}

// AdvanceStatus moves a stage forward through PRECOSTED, ACTUAL, COMPLETED
func (a *Aggregator) AdvanceStatus(
	ctx context.Context,
	tenant entities.TenantID,
	stageID string,
	status entities.StageStatus,
) (*entities.StageCost, error) {
	stage, err := a.stages.GetStageCost(ctx, tenant, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage %s: %w", stageID, err)
	}
	if status <= stage.Status {
		return nil, fmt.Errorf("stage %s cannot move from %s to %s", stageID, stage.Status, status)
	}

	stage.Status = status
	stage.UpdatedAt = a.now()
	if err := a.stages.SaveStageCost(ctx, tenant, stage); err != nil {
		return nil, fmt.Errorf("failed to save stage %s: %w", stageID, err)
	}
	return stage, nil
}

// Aggregate sums the order's stage costs in stage order. The final unit cost
// divides the total by the last stage's good quantity; defect rates stay per
// stage. Before the stage table exists the summary is empty.
func (a *Aggregator) Aggregate(ctx context.Context, tenant entities.TenantID, orderID entities.OrderID) (*dto.OrderCostSummary, error) {
	stages, err := a.stages.ListStageCosts(ctx, tenant, orderID)
	if errors.Is(err, repositories.ErrSchemaNotReady) {
		a.log.Warn().Err(err).Str("order_id", string(orderID)).Msg("Stage cost storage not ready, returning empty summary")
		stages = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to list stages of order %s: %w", orderID, err)
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].StageNumber < stages[j].StageNumber })

	summary := &dto.OrderCostSummary{
		OrderID:           orderID,
		MaterialCost:      decimal.Zero,
		LaborCost:         decimal.Zero,
		OverheadCost:      decimal.Zero,
		TotalCost:         decimal.Zero,
		FinalGoodQuantity: decimal.Zero,
		Stages:            make([]dto.StageSummary, 0, len(stages)),
	}
	for _, s := range stages {
		s.Recalculate()
		summary.MaterialCost = summary.MaterialCost.Add(s.MaterialCost)
		summary.LaborCost = summary.LaborCost.Add(s.LaborCost)
		summary.OverheadCost = summary.OverheadCost.Add(s.OverheadCost)
		summary.Stages = append(summary.Stages, dto.StageSummary{
			StageID:           s.ID,
			StageNumber:       s.StageNumber,
			WorkCenterID:      s.WorkCenterID,
			GoodQuantity:      s.GoodQuantity,
			DefectiveQuantity: s.DefectiveQuantity,
			TotalCost:         s.TotalCost,
			UnitCost:          s.UnitCost,
			DefectiveRate:     s.DefectiveRate(),
			Status:            s.Status,
		})
	}
	summary.TotalCost = summary.MaterialCost.Add(summary.LaborCost).Add(summary.OverheadCost)
	if len(stages) > 0 {
		summary.FinalGoodQuantity = stages[len(stages)-1].GoodQuantity
	}
	summary.FinalUnitCost = entities.SafeDivide(summary.TotalCost, summary.FinalGoodQuantity)

	return summary, nil
}
