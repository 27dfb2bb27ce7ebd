package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TenantID is the opaque organization key every storage call is scoped by
type TenantID string

// ItemID represents a unique item identifier
type ItemID string

// Item represents item master data together with its stock counters
type Item struct {
	ID            ItemID
	Code          string
	Name          string
	UnitOfMeasure string
	StandardCost  decimal.Decimal
	OnHand        decimal.Decimal
	Reserved      decimal.Decimal
	// Version is the row version used for optimistic locking of the stock counters
	Version int64
}

// NewItem creates a validated Item with zero stock
func NewItem(id ItemID, code, name, uom string, standardCost decimal.Decimal) (*Item, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if code == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if standardCost.IsNegative() {
		return nil, fmt.Errorf("standard cost cannot be negative, got %s", standardCost)
	}
	if uom == "" {
		uom = "EA"
	}

	return &Item{
		ID:            id,
		Code:          code,
		Name:          name,
		UnitOfMeasure: uom,
		StandardCost:  standardCost,
		OnHand:        decimal.Zero,
		Reserved:      decimal.Zero,
	}, nil
}

// Available returns on-hand quantity not held by a reservation
func (i *Item) Available() decimal.Decimal {
	return i.OnHand.Sub(i.Reserved)
}

// MaterialRequirement is an item quantity, optionally priced, used for
// availability checks, reservations and consumption
type MaterialRequirement struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// AggregateRequirements sums requirements by item, keeping first-seen order
// and the first non-zero unit cost seen for each item
func AggregateRequirements(reqs []MaterialRequirement) []MaterialRequirement {
	index := make(map[ItemID]int, len(reqs))
	out := make([]MaterialRequirement, 0, len(reqs))
	for _, r := range reqs {
		if i, ok := index[r.ItemID]; ok {
			out[i].Quantity = out[i].Quantity.Add(r.Quantity)
			if out[i].UnitCost.IsZero() {
				out[i].UnitCost = r.UnitCost
			}
			continue
		}
		index[r.ItemID] = len(out)
		out = append(out, r)
	}
	return out
}
