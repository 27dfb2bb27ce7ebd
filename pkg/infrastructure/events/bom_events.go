package events

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

const (
	BOMHeaderCreatedEvent = "bom.header.created"
	BOMLineCreatedEvent   = "bom.line.created"
	BOMLineUpdatedEvent   = "bom.line.updated"
	BOMApprovedEvent      = "bom.approved"
	BOMObsoletedEvent     = "bom.obsoleted"

	OrderCreatedEvent       = "order.created"
	OrderStatusChangedEvent = "order.status_changed"

	ReservationsReleasedEvent = "reservation.released"
	InventoryReceivedEvent    = "inventory.received"
)

// BOMEditEvents lists every event that changes what a BOM explodes to
var BOMEditEvents = []string{
	BOMHeaderCreatedEvent,
	BOMLineCreatedEvent,
	BOMLineUpdatedEvent,
	BOMApprovedEvent,
	BOMObsoletedEvent,
}

// IsBOMEdit reports whether eventType is a BOM edit
func IsBOMEdit(eventType string) bool {
	return strings.HasPrefix(eventType, "bom.")
}

type BOMEdited struct {
	Tenant entities.TenantID `json:"tenant"`
	BOMID  entities.BOMID    `json:"bom_id"`
	ItemID entities.ItemID   `json:"item_id"`
	LineID string            `json:"line_id,omitempty"`
}

type OrderCreated struct {
	Tenant        entities.TenantID           `json:"tenant"`
	Order         entities.ManufacturingOrder `json:"order"`
	Reservations  int                         `json:"reservations"`
	UnderReserved bool                        `json:"under_reserved"`
}

type OrderStatusChanged struct {
	Tenant  entities.TenantID    `json:"tenant"`
	OrderID entities.OrderID     `json:"order_id"`
	From    entities.OrderStatus `json:"from"`
	To      entities.OrderStatus `json:"to"`
}

type ReservationsReleased struct {
	Tenant   entities.TenantID `json:"tenant"`
	OrderID  entities.OrderID  `json:"order_id"`
	Released int               `json:"released"`
}

type InventoryReceived struct {
	Tenant   entities.TenantID `json:"tenant"`
	ItemID   entities.ItemID   `json:"item_id"`
	Quantity decimal.Decimal   `json:"quantity"`
}

func NewBOMEditedEvent(eventType string, tenant entities.TenantID, header *entities.BOMHeader, lineID string) Event {
	return newEvent(eventType, string(header.ID), BOMEdited{
		Tenant: tenant,
		BOMID:  header.ID,
		ItemID: header.ItemID,
		LineID: lineID,
	})
}

func NewOrderCreatedEvent(tenant entities.TenantID, order *entities.ManufacturingOrder, reservations int) Event {
	return newEvent(OrderCreatedEvent, string(order.ID), OrderCreated{
		Tenant:        tenant,
		Order:         *order,
		Reservations:  reservations,
		UnderReserved: order.UnderReserved,
	})
}

func NewOrderStatusChangedEvent(tenant entities.TenantID, orderID entities.OrderID, from, to entities.OrderStatus) Event {
	return newEvent(OrderStatusChangedEvent, string(orderID), OrderStatusChanged{
		Tenant:  tenant,
		OrderID: orderID,
		From:    from,
		To:      to,
	})
}

func NewReservationsReleasedEvent(tenant entities.TenantID, orderID entities.OrderID, released int) Event {
	return newEvent(ReservationsReleasedEvent, string(orderID), ReservationsReleased{
		Tenant:   tenant,
		OrderID:  orderID,
		Released: released,
	})
}

func NewInventoryReceivedEvent(tenant entities.TenantID, itemID entities.ItemID, qty decimal.Decimal) Event {
	return newEvent(InventoryReceivedEvent, string(itemID), InventoryReceived{
		Tenant:   tenant,
		ItemID:   itemID,
		Quantity: qty,
	})
}
