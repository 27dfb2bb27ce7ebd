package dto

import (
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// StageSummary is one stage line of an order cost summary
type StageSummary struct {
	StageID           string                `json:"stage_id"`
	StageNumber       int                   `json:"stage_number"`
	WorkCenterID      entities.WorkCenterID `json:"work_center_id"`
	GoodQuantity      decimal.Decimal       `json:"good_quantity"`
	DefectiveQuantity decimal.Decimal       `json:"defective_quantity"`
	TotalCost         decimal.Decimal       `json:"total_cost"`
	UnitCost          entities.Ratio        `json:"unit_cost"`
	DefectiveRate     entities.Ratio        `json:"defective_rate"`
	Status            entities.StageStatus  `json:"status"`
}

// OrderCostSummary is the actual cost of an order aggregated over its stages
type OrderCostSummary struct {
	OrderID           entities.OrderID `json:"order_id"`
	MaterialCost      decimal.Decimal  `json:"material_cost"`
	LaborCost         decimal.Decimal  `json:"labor_cost"`
	OverheadCost      decimal.Decimal  `json:"overhead_cost"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	FinalGoodQuantity decimal.Decimal  `json:"final_good_quantity"`
	FinalUnitCost     entities.Ratio   `json:"final_unit_cost"`
	Stages            []StageSummary   `json:"stages"`
}

// Rounded returns a copy with money, unit costs and rates rounded to places
func (s OrderCostSummary) Rounded(places int32) OrderCostSummary {
	s.MaterialCost = s.MaterialCost.Round(places)
	s.LaborCost = s.LaborCost.Round(places)
	s.OverheadCost = s.OverheadCost.Round(places)
	s.TotalCost = s.TotalCost.Round(places)
	s.FinalUnitCost = s.FinalUnitCost.Round(places)
	stages := make([]StageSummary, len(s.Stages))
	for i, st := range s.Stages {
		st.TotalCost = st.TotalCost.Round(places)
		st.UnitCost = st.UnitCost.Round(places)
		st.DefectiveRate = st.DefectiveRate.Round(places)
		stages[i] = st
	}
	s.Stages = stages
	return s
}
