package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusPaid      SeatStatus = "paid"
)

// Seat is one physical seat of a seat map. Seats are created by SeatMap.AddSeat
// or restored from storage, and afterwards only change state through
// Reserve, MarkPaid and Release.
type Seat struct {
	id       uuid.UUID
	mapID    uuid.UUID
	eventID  string
	row      int
	number   int
	category SeatCategory
	reserved bool
	paid     bool
	heldBy   string
	heldAt   time.Time

	version int
	dirty   bool
}

func newSeat(id, mapID uuid.UUID, eventID string, row, number int, category SeatCategory) (*Seat, error) {
	switch {
	case id == uuid.Nil:
		return nil, fmt.Errorf("%w: seat id must not be empty", ErrInvalidArgument)
	case mapID == uuid.Nil:
		return nil, fmt.Errorf("%w: map id must not be empty", ErrInvalidArgument)
	case strings.TrimSpace(eventID) == "":
		return nil, fmt.Errorf("%w: event id must not be empty", ErrInvalidArgument)
	case row < 0:
		return nil, fmt.Errorf("%w: row must be zero or greater", ErrInvalidArgument)
	case number < 0:
		return nil, fmt.Errorf("%w: seat number must be zero or greater", ErrInvalidArgument)
	case category.IsZero():
		return nil, fmt.Errorf("%w: seat category is required", ErrInvalidArgument)
	}

	return &Seat{
		id:       id,
		mapID:    mapID,
		eventID:  eventID,
		row:      row,
		number:   number,
		category: category,
	}, nil
}

func (s *Seat) ID() uuid.UUID {
	return s.id
}

func (s *Seat) MapID() uuid.UUID {
	return s.mapID
}

func (s *Seat) EventID() string {
	return s.eventID
}

func (s *Seat) Row() int {
	return s.row
}

func (s *Seat) Number() int {
	return s.number
}

func (s *Seat) Category() SeatCategory {
	return s.category
}

func (s *Seat) Reserved() bool {
	return s.reserved
}

func (s *Seat) Paid() bool {
	return s.paid
}

func (s *Seat) HeldBy() string {
	return s.heldBy
}

func (s *Seat) HeldAt() time.Time {
	return s.heldAt
}

func (s *Seat) Version() int {
	return s.version
}

func (s *Seat) position() seatPosition {
	return seatPosition{row: s.row, number: s.number}
}

func (s *Seat) Status() SeatStatus {
	return statusOf(s.reserved, s.paid)
}

func (s *Seat) persisted() bool {
	return s.version > 0
}

func (s *Seat) markPersisted() {
	s.version++
	s.dirty = false
}

func (s *Seat) modifiedSincePersist() bool {
	return s.persisted() && s.dirty
}

func statusOf(reserved, paid bool) SeatStatus {
	switch {
	case paid:
		return SeatStatusPaid
	case reserved:
		return SeatStatusHeld
	default:
		return SeatStatusAvailable
	}
}

// Reserve places a hold on the seat. A second reservation of a held seat fails
// with ErrAlreadyReserved so callers can tell "got the seat" from "seat taken".
func (s *Seat) Reserve(userID string, at time.Time) error {
	if s.reserved {
		return ErrAlreadyReserved
	}

	s.reserved = true
	s.paid = false
	s.heldBy = userID
	s.heldAt = at
	s.dirty = true

	return nil
}

func (s *Seat) MarkPaid() error {
	if !s.reserved {
		return fmt.Errorf("%w: seat %s is not reserved", ErrInvalidState, s.id)
	}

	s.paid = true
	s.dirty = true

	return nil
}

// Release frees the seat. Releasing a free seat is a no-op; the return value
// reports whether a hold was actually cleared.
func (s *Seat) Release() bool {
	if !s.reserved {
		return false
	}

	s.reserved = false
	s.paid = false
	s.heldBy = ""
	s.heldAt = time.Time{}
	s.dirty = true

	return true
}
