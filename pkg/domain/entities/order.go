package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderID represents a unique manufacturing order identifier
type OrderID string

// OrderStatus represents the state of a manufacturing order
type OrderStatus int

const (
	OrderDraft OrderStatus = iota
	OrderConfirmed
	OrderInProgress
	OrderCompleted
	OrderCancelled
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case OrderDraft:
		return "DRAFT"
	case OrderConfirmed:
		return "CONFIRMED"
	case OrderInProgress:
		return "IN_PROGRESS"
	case OrderCompleted:
		return "COMPLETED"
	case OrderCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderStatus converts a stored status name back to an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DRAFT":
		return OrderDraft, nil
	case "CONFIRMED":
		return OrderConfirmed, nil
	case "IN_PROGRESS":
		return OrderInProgress, nil
	case "COMPLETED":
		return OrderCompleted, nil
	case "CANCELLED":
		return OrderCancelled, nil
	default:
		return OrderDraft, fmt.Errorf("unknown order status: %q", s)
	}
}

func (s OrderStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *OrderStatus) UnmarshalText(b []byte) error {
	v, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether target is the next forward state or a
// cancellation of a non-terminal order
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderCancelled {
		return true
	}
	switch s {
	case OrderDraft:
		return target == OrderConfirmed
	case OrderConfirmed:
		return target == OrderInProgress
	case OrderInProgress:
		return target == OrderCompleted
	}
	return false
}

// ManufacturingOrder represents an order to produce an item
type ManufacturingOrder struct {
	ID              OrderID
	ItemID          ItemID
	BOMID           BOMID
	PlannedQuantity decimal.Decimal
	Status          OrderStatus
	StartDate       *time.Time
	EndDate         *time.Time
	// UnderReserved marks an order persisted without its reservations
	UnderReserved bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewManufacturingOrder creates a validated DRAFT order
func NewManufacturingOrder(id OrderID, itemID ItemID, bomID BOMID, quantity decimal.Decimal) (*ManufacturingOrder, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if string(itemID) == "" {
		return nil, fmt.Errorf("order item id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("planned quantity must be positive, got %s", quantity)
	}

	now := time.Now().UTC()
	return &ManufacturingOrder{
		ID:              id,
		ItemID:          itemID,
		BOMID:           bomID,
		PlannedQuantity: quantity,
		Status:          OrderDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
