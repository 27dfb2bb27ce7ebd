package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// ReservationMode selects how order creation treats reservation failures
type ReservationMode int

const (
	// ReserveBeforeCreate reserves first and persists nothing when reservation fails
	ReserveBeforeCreate ReservationMode = iota
	// ReserveAfterCreate persists the order, then reserves; a failed
	// reservation leaves the order flagged as under-reserved, and a shortage
	// caused by a concurrent reservation is also returned as an error
	ReserveAfterCreate
)

// CreateOrderRequest describes a manufacturing order to create
type CreateOrderRequest struct {
	ItemID   entities.ItemID
	BOMID    entities.BOMID
	Quantity decimal.Decimal
	// Materials overrides the BOM explosion when non-empty
	Materials []entities.MaterialRequirement
	StartDate *time.Time
	Mode      ReservationMode
}

// StatusOptions carries operator-supplied dates for a status change
type StatusOptions struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// OrderDetail is an order with its reservations
type OrderDetail struct {
	Order        *entities.ManufacturingOrder    `json:"order"`
	Reservations []*entities.MaterialReservation `json:"reservations"`
}
