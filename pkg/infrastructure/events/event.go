package events

import (
	"context"
	"time"
)

// Event is a fact recorded after a BOM, order, reservation or stock change
// commits. StreamID names the aggregate it happened to: a BOM id for BOM
// edits, an order id for order and reservation events, an item id for
// receipts. Version counts events within that stream from 1.
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to events after they are stored. The tree cache
// invalidator is one; it subscribes to BOMEditEvents.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	CanHandle(eventType string) bool
}

// Publisher is the write side of an event store used by application services
type Publisher interface {
	AppendEvent(ctx context.Context, streamID string, event Event) error
}

// EventStore keeps every stream in append order and fans events out to
// subscribers by type
type EventStore interface {
	Publisher
	// ReadEvents returns the stream's events with Version >= fromVersion
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	// ReadAllEvents returns events across all streams from a global position
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// record is the stored form of every event; payload is one of BOMEdited,
// OrderCreated, OrderStatusChanged, ReservationsReleased or InventoryReceived
type record struct {
	eventType string
	stream    string
	payload   interface{}
	at        time.Time
	version   int
}

func (r record) Type() string         { return r.eventType }
func (r record) StreamID() string     { return r.stream }
func (r record) Data() interface{}    { return r.payload }
func (r record) Timestamp() time.Time { return r.at }
func (r record) Version() int         { return r.version }

// newEvent stamps a payload with the current time. The version is a
// placeholder until the store assigns the stream position.
func newEvent(eventType, streamID string, payload interface{}) Event {
	return record{
		eventType: eventType,
		stream:    streamID,
		payload:   payload,
		at:        time.Now().UTC(),
		version:   1,
	}
}

// sequenced copies event onto streamID at the given stream position
func sequenced(event Event, streamID string, version int) Event {
	return record{
		eventType: event.Type(),
		stream:    streamID,
		payload:   event.Data(),
		at:        event.Timestamp(),
		version:   version,
	}
}
