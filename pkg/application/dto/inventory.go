package dto

import (
	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// Availability reports whether stock covers one requirement
type Availability struct {
	ItemID     entities.ItemID `json:"item_id"`
	Code       string          `json:"code"`
	Required   decimal.Decimal `json:"required"`
	OnHand     decimal.Decimal `json:"on_hand"`
	Reserved   decimal.Decimal `json:"reserved"`
	Available  decimal.Decimal `json:"available"`
	Sufficient bool            `json:"sufficient"`
}

// Shortages converts insufficient rows into shortage records
func Shortages(rows []Availability) []entities.Shortage {
	var shortages []entities.Shortage
	for _, a := range rows {
		if a.Sufficient {
			continue
		}
		shortages = append(shortages, entities.Shortage{
			ItemID:    a.ItemID,
			Required:  a.Required,
			Available: a.Available,
			Shortfall: a.Required.Sub(a.Available),
		})
	}
	return shortages
}
