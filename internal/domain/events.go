package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventMapCreated    = "seat_map.created"
	EventCategoryAdded = "seat_map.category_added"
	EventSeatAdded     = "seat.added"
	EventSeatReserved  = "seat.reserved"
	EventSeatReleased  = "seat.released"
	EventSeatPaid      = "seat.paid"
)

// Event is a state change raised by a SeatMap operation. Events are returned
// to the caller of the operation, never stored on the aggregate.
type Event interface {
	EventType() string
	AggregateID() uuid.UUID
}

type MapCreated struct {
	MapID   uuid.UUID `json:"mapId"`
	EventID string    `json:"eventId"`
}

type CategoryAdded struct {
	MapID        uuid.UUID `json:"mapId"`
	CategoryName string    `json:"categoryName"`
}

type SeatAdded struct {
	MapID    uuid.UUID `json:"mapId"`
	SeatID   uuid.UUID `json:"seatId"`
	Row      int       `json:"row"`
	Number   int       `json:"number"`
	Category string    `json:"category"`
}

type SeatReserved struct {
	MapID  uuid.UUID `json:"mapId"`
	SeatID uuid.UUID `json:"seatId"`
	Row    int       `json:"row"`
	Number int       `json:"number"`
	UserID string    `json:"userId,omitempty"`
}

type SeatReleased struct {
	MapID  uuid.UUID `json:"mapId"`
	SeatID uuid.UUID `json:"seatId"`
	Row    int       `json:"row"`
	Number int       `json:"number"`
}

type SeatPaid struct {
	MapID  uuid.UUID `json:"mapId"`
	SeatID uuid.UUID `json:"seatId"`
	Row    int       `json:"row"`
	Number int       `json:"number"`
}

func (e MapCreated) EventType() string         { return EventMapCreated }
func (e MapCreated) AggregateID() uuid.UUID    { return e.MapID }
func (e CategoryAdded) EventType() string      { return EventCategoryAdded }
func (e CategoryAdded) AggregateID() uuid.UUID { return e.MapID }
func (e SeatAdded) EventType() string          { return EventSeatAdded }
func (e SeatAdded) AggregateID() uuid.UUID     { return e.MapID }
func (e SeatReserved) EventType() string       { return EventSeatReserved }
func (e SeatReserved) AggregateID() uuid.UUID  { return e.MapID }
func (e SeatReleased) EventType() string       { return EventSeatReleased }
func (e SeatReleased) AggregateID() uuid.UUID  { return e.MapID }
func (e SeatPaid) EventType() string           { return EventSeatPaid }
func (e SeatPaid) AggregateID() uuid.UUID      { return e.MapID }

// Envelope is the wire form of an Event shared by every publisher.
type Envelope struct {
	Type       string          `json:"type"`
	MapID      uuid.UUID       `json:"mapId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(e Event, occurredAt time.Time) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:       e.EventType(),
		MapID:      e.AggregateID(),
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	}, nil
}

// EventPublisher broadcasts events to interested parties. Publishing is
// fire-and-forget and never part of the consistency boundary.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// ReservationExpired is the inbound integration event produced when a hold
// outlived its reservation window.
type ReservationExpired struct {
	MapID     uuid.UUID `json:"mapId"`
	SeatID    uuid.UUID `json:"seatId"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	ExpiredAt time.Time `json:"expiredAt"`
}
