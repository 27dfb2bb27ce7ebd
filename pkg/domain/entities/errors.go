package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrBOMNotEditable  = errors.New("BOM is not editable")
)

// CircularBOMError reports a BOM that references itself through its lines.
// Path starts and ends with the repeated BOM.
type CircularBOMError struct {
	Path []BOMID
}

func (e *CircularBOMError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("circular BOM reference: %s", strings.Join(parts, " -> "))
}

// InvalidBOMLineError reports a line that breaks the quantity or scrap invariants
type InvalidBOMLineError struct {
	BOMID           BOMID
	LineID          string
	ComponentItemID ItemID
	Reason          string
}

func (e *InvalidBOMLineError) Error() string {
	return fmt.Sprintf("invalid BOM line %s in BOM %s (component %s): %s",
		e.LineID, e.BOMID, e.ComponentItemID, e.Reason)
}

// AmbiguousBOMVersionError reports several APPROVED headers effective for one item and date
type AmbiguousBOMVersionError struct {
	ItemID     ItemID
	AsOf       time.Time
	Candidates []BOMID
}

func (e *AmbiguousBOMVersionError) Error() string {
	return fmt.Sprintf("item %s has %d approved BOM versions effective at %s: %v",
		e.ItemID, len(e.Candidates), e.AsOf.Format("2006-01-02"), e.Candidates)
}

// Shortage is the unmet part of a requirement for one item
type Shortage struct {
	ItemID    ItemID
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

// InsufficientStockError lists every item that could not be covered
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (required %s, available %s, short %s)",
			s.ItemID, s.Required, s.Available, s.Shortfall)
	}
	return fmt.Sprintf("insufficient stock for %d item(s): %s", len(e.Shortages), strings.Join(parts, "; "))
}

// ReservationNotFoundError reports consumption without an active reservation
type ReservationNotFoundError struct {
	OrderID OrderID
	ItemID  ItemID
}

func (e *ReservationNotFoundError) Error() string {
	return fmt.Sprintf("no active reservation of item %s for order %s", e.ItemID, e.OrderID)
}

// OverConsumptionError reports consumption beyond the reserved quantity
type OverConsumptionError struct {
	OrderID     OrderID
	ItemID      ItemID
	Requested   decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *OverConsumptionError) Error() string {
	return fmt.Sprintf("cannot consume %s of item %s for order %s: only %s reserved",
		e.Requested, e.ItemID, e.OrderID, e.Outstanding)
}

// InvalidTransitionError reports a forbidden order status change
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

// CheckShortages compares requirements with available stock and returns the
// shortfalls, in requirement order
func CheckShortages(reqs []MaterialRequirement, available map[ItemID]decimal.Decimal) []Shortage {
	var shortages []Shortage
	for _, r := range reqs {
		avail := available[r.ItemID]
		if avail.LessThan(r.Quantity) {
			shortages = append(shortages, Shortage{
				ItemID:    r.ItemID,
				Required:  r.Quantity,
				Available: avail,
				Shortfall: r.Quantity.Sub(avail),
			})
		}
	}
	return shortages
}
