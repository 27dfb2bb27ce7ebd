package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// Requirement is the aggregated need for one item in an explosion
type Requirement struct {
	ItemID           entities.ItemID `json:"item_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	UnitOfMeasure    string          `json:"unit_of_measure"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	CostContribution decimal.Decimal `json:"cost_contribution"`
	// BOMID is set for sub-assemblies and names the BOM that was exploded
	BOMID      entities.BOMID `json:"bom_id,omitempty"`
	IsCritical bool           `json:"is_critical"`
}

// ExplosionResult contains the flat material list for one BOM and quantity
type ExplosionResult struct {
	BOMID    entities.BOMID  `json:"bom_id"`
	ItemID   entities.ItemID `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	// Requirements holds leaf items only; phantoms never appear
	Requirements []Requirement `json:"requirements"`
	// Subassemblies lists the NORMAL intermediate assemblies that were exploded
	Subassemblies     []Requirement   `json:"subassemblies"`
	TotalMaterialCost decimal.Decimal `json:"total_material_cost"`
	AsOf              time.Time       `json:"as_of"`
}

// MaterialRequirements converts the leaf requirements into reservation input
func (r *ExplosionResult) MaterialRequirements() []entities.MaterialRequirement {
	reqs := make([]entities.MaterialRequirement, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		reqs = append(reqs, entities.MaterialRequirement{
			ItemID:   req.ItemID,
			Quantity: req.RequiredQuantity,
			UnitCost: req.UnitCost,
		})
	}
	return reqs
}

// Requirement returns the aggregated leaf requirement for itemID
func (r *ExplosionResult) Requirement(itemID entities.ItemID) (Requirement, bool) {
	for _, req := range r.Requirements {
		if req.ItemID == itemID {
			return req, true
		}
	}
	return Requirement{}, false
}
