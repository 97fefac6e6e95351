package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeatMapSnapshot is the plain-data form of a SeatMap that repositories read
// and write. Categories and seats keep their registration order.
type SeatMapSnapshot struct {
	ID         uuid.UUID
	EventID    string
	Categories []CategorySnapshot
	Seats      []SeatSnapshot
}

type CategorySnapshot struct {
	Name        string
	BasePrice   decimal.NullDecimal
	HasPriority bool
}

type SeatSnapshot struct {
	ID       uuid.UUID
	Row      int
	Number   int
	Category string
	Reserved bool
	Paid     bool
	HeldBy   string
	HeldAt   time.Time
	Version  int
}

func (m *SeatMap) Snapshot() SeatMapSnapshot {
	snapshot := SeatMapSnapshot{
		ID:         m.id,
		EventID:    m.eventID,
		Categories: make([]CategorySnapshot, 0, len(m.categories)),
		Seats:      make([]SeatSnapshot, 0, len(m.seats)),
	}

	for _, c := range m.categories {
		snapshot.Categories = append(snapshot.Categories, CategorySnapshot{
			Name:        c.Name(),
			BasePrice:   c.BasePrice(),
			HasPriority: c.HasPriority(),
		})
	}

	for _, s := range m.seats {
		snapshot.Seats = append(snapshot.Seats, s.Snapshot())
	}

	return snapshot
}

func (s *Seat) Snapshot() SeatSnapshot {
	return SeatSnapshot{
		ID:       s.id,
		Row:      s.row,
		Number:   s.number,
		Category: s.category.Name(),
		Reserved: s.reserved,
		Paid:     s.paid,
		HeldBy:   s.heldBy,
		HeldAt:   s.heldAt,
		Version:  s.version,
	}
}

// RestoreSeatMap rebuilds a stored aggregate. Seats go through the same
// constructor and checks as AddSeat, and the result has an empty
// change-set.
func RestoreSeatMap(snapshot SeatMapSnapshot) (*SeatMap, error) {
	if snapshot.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: map id must not be empty", ErrInvalidArgument)
	}

	m := &SeatMap{
		id:         snapshot.ID,
		eventID:    snapshot.EventID,
		byID:       make(map[uuid.UUID]*Seat, len(snapshot.Seats)),
		byPosition: make(map[seatPosition]*Seat, len(snapshot.Seats)),
	}

	for _, c := range snapshot.Categories {
		if _, _, err := m.AddCategory(c.Name, c.BasePrice, c.HasPriority); err != nil {
			return nil, fmt.Errorf("restore category %q: %w", c.Name, err)
		}
	}

	for _, s := range snapshot.Seats {
		seat, err := restoreSeat(m, s)
		if err != nil {
			return nil, fmt.Errorf("restore seat %s: %w", s.ID, err)
		}

		m.appendSeat(seat)
	}

	m.stored = true
	m.persistedCategories = len(m.categories)
	m.persistedSeats = len(m.seats)

	return m, nil
}

func restoreSeat(m *SeatMap, s SeatSnapshot) (*Seat, error) {
	category, ok := m.findCategory(s.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, s.Category)
	}

	if _, taken := m.byPosition[seatPosition{row: s.Row, number: s.Number}]; taken {
		return nil, fmt.Errorf("%w: row %d, number %d", ErrDuplicateSeat, s.Row, s.Number)
	}

	if s.Paid && !s.Reserved {
		return nil, fmt.Errorf("%w: paid seat must be reserved", ErrInvalidState)
	}

	if s.Version < 1 {
		return nil, fmt.Errorf("%w: stored seat version must be positive", ErrInvalidArgument)
	}

	seat, err := newSeat(s.ID, m.id, m.eventID, s.Row, s.Number, category)
	if err != nil {
		return nil, err
	}

	seat.reserved = s.Reserved
	seat.paid = s.Paid
	seat.heldBy = s.HeldBy
	seat.heldAt = s.HeldAt
	seat.version = s.Version

	return seat, nil
}

// RestoreSeat rebuilds a single stored seat for the targeted seat read path.
func RestoreSeat(mapID uuid.UUID, eventID string, category CategorySnapshot, s SeatSnapshot) (*Seat, error) {
	m := &SeatMap{
		id:         mapID,
		eventID:    eventID,
		byID:       make(map[uuid.UUID]*Seat, 1),
		byPosition: make(map[seatPosition]*Seat, 1),
	}

	if _, _, err := m.AddCategory(category.Name, category.BasePrice, category.HasPriority); err != nil {
		return nil, err
	}

	return restoreSeat(m, s)
}
