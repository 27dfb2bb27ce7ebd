package dto

import (
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// CostType names a cost bucket
type CostType string

const (
	CostMaterial CostType = "MATERIAL"
	CostLabor    CostType = "LABOR"
	CostOverhead CostType = "OVERHEAD"
	CostTotal    CostType = "TOTAL"
)

// CostBreakdown is a standard or actual cost for a quantity of an assembly
type CostBreakdown struct {
	BOMID        entities.BOMID  `json:"bom_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	OverheadCost decimal.Decimal `json:"overhead_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// ByType returns the value of one cost bucket
func (c *CostBreakdown) ByType(t CostType) decimal.Decimal {
	switch t {
	case CostMaterial:
		return c.MaterialCost
	case CostLabor:
		return c.LaborCost
	case CostOverhead:
		return c.OverheadCost
	default:
		return c.TotalCost
	}
}

// CostVariance compares one cost bucket between standard and actual
type CostVariance struct {
	CostType        CostType        `json:"cost_type"`
	StandardCost    decimal.Decimal `json:"standard_cost"`
	ActualCost      decimal.Decimal `json:"actual_cost"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent entities.Ratio  `json:"variance_percent"`
}

// Rounded returns a copy with every money field rounded to places
func (c CostBreakdown) Rounded(places int32) CostBreakdown {
	c.MaterialCost = c.MaterialCost.Round(places)
	c.LaborCost = c.LaborCost.Round(places)
	c.OverheadCost = c.OverheadCost.Round(places)
	c.TotalCost = c.TotalCost.Round(places)
	c.UnitCost = c.UnitCost.Round(places)
	return c
}

// Rounded returns a copy with money and percent rounded to places
func (v CostVariance) Rounded(places int32) CostVariance {
	v.StandardCost = v.StandardCost.Round(places)
	v.ActualCost = v.ActualCost.Round(places)
	v.Variance = v.Variance.Round(places)
	v.VariancePercent = v.VariancePercent.Round(places)
	return v
}
