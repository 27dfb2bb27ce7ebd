package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the state of a material reservation
type ReservationStatus int

const (
	ReservationReserved ReservationStatus = iota
	ReservationConsumed
	ReservationReleased
)

// String method for ReservationStatus enum
func (s ReservationStatus) String() string {
	switch s {
	case ReservationReserved:
		return "RESERVED"
	case ReservationConsumed:
		return "CONSUMED"
	case ReservationReleased:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// ParseReservationStatus converts a stored status name back to a ReservationStatus
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RESERVED":
		return ReservationReserved, nil
	case "CONSUMED":
		return ReservationConsumed, nil
	case "RELEASED":
		return ReservationReleased, nil
	default:
		return ReservationReserved, fmt.Errorf("unknown reservation status: %q", s)
	}
}

func (s ReservationStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ReservationStatus) UnmarshalText(b []byte) error {
	v, err := ParseReservationStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MaterialReservation holds on-hand stock of one item for one order.
// Rows in CONSUMED or RELEASED are never modified again.
type MaterialReservation struct {
	ID               string
	OrderID          OrderID
	ItemID           ItemID
	QuantityReserved decimal.Decimal
	QuantityConsumed decimal.Decimal
	UnitCost         decimal.Decimal
	Status           ReservationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMaterialReservation creates a RESERVED row
func NewMaterialReservation(orderID OrderID, req MaterialRequirement) *MaterialReservation {
	now := time.Now().UTC()
	return &MaterialReservation{
		ID:               NewID(),
		OrderID:          orderID,
		ItemID:           req.ItemID,
		QuantityReserved: req.Quantity,
		QuantityConsumed: decimal.Zero,
		UnitCost:         req.UnitCost,
		Status:           ReservationReserved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Outstanding returns the quantity still held by an active reservation
func (r *MaterialReservation) Outstanding() decimal.Decimal {
	if r.Status != ReservationReserved {
		return decimal.Zero
	}
	return r.QuantityReserved.Sub(r.QuantityConsumed)
}

// Consume records qty against the reservation, which must not exceed the
// outstanding quantity, and marks it CONSUMED once nothing is outstanding
func (r *MaterialReservation) Consume(qty decimal.Decimal, at time.Time) {
	r.QuantityConsumed = r.QuantityConsumed.Add(qty)
	if r.QuantityConsumed.GreaterThanOrEqual(r.QuantityReserved) {
		r.Status = ReservationConsumed
	}
	r.UpdatedAt = at
}

// Release frees the outstanding quantity and returns it
func (r *MaterialReservation) Release(at time.Time) decimal.Decimal {
	freed := r.Outstanding()
	if r.Status == ReservationReserved {
		r.Status = ReservationReleased
		r.UpdatedAt = at
	}
	return freed
}
