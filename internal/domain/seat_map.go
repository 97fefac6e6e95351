package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type seatPosition struct {
	row    int
	number int
}

// SeatMap is the aggregate root owning every seat and category of one event.
// It is the only way to reach or mutate a Seat.
//
// Categories and seats are append-only, so whatever sits past the persisted
// counters is new since the last load or save.
type SeatMap struct {
	id         uuid.UUID
	eventID    string
	categories []SeatCategory
	seats      []*Seat

	byID       map[uuid.UUID]*Seat
	byPosition map[seatPosition]*Seat

	stored              bool
	persistedCategories int
	persistedSeats      int
}

func NewSeatMap(eventID string) (*SeatMap, []Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, nil, fmt.Errorf("%w: event id must not be empty", ErrInvalidArgument)
	}

	m := &SeatMap{
		id:         uuid.New(),
		eventID:    eventID,
		byID:       make(map[uuid.UUID]*Seat),
		byPosition: make(map[seatPosition]*Seat),
	}

	return m, []Event{MapCreated{MapID: m.id, EventID: eventID}}, nil
}

func (m *SeatMap) ID() uuid.UUID {
	return m.id
}

func (m *SeatMap) EventID() string {
	return m.eventID
}

// Categories returns the registered categories in registration order.
func (m *SeatMap) Categories() []SeatCategory {
	categories := make([]SeatCategory, len(m.categories))
	copy(categories, m.categories)

	return categories
}

// Seats returns detached copies of the seats; mutating a copy never affects the map.
func (m *SeatMap) Seats() []Seat {
	return copySeats(m.seats)
}

func (m *SeatMap) Seat(seatID uuid.UUID) (Seat, error) {
	seat, ok := m.byID[seatID]
	if !ok {
		return Seat{}, fmt.Errorf("%w: %s", ErrSeatNotFound, seatID)
	}

	return *seat, nil
}

func (m *SeatMap) findCategory(name string) (SeatCategory, bool) {
	key := CategoryKey(name)

	for _, c := range m.categories {
		if c.Key() == key {
			return c, true
		}
	}

	return SeatCategory{}, false
}

func (m *SeatMap) findSeat(seatID uuid.UUID) (*Seat, error) {
	seat, ok := m.byID[seatID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, seatID)
	}

	return seat, nil
}

// AddCategory registers a new category. A name that matches an existing
// category case-insensitively is rejected with ErrDuplicateCategory.
func (m *SeatMap) AddCategory(name string, basePrice decimal.NullDecimal, hasPriority bool) (string, []Event, error) {
	category, err := NewSeatCategory(name, basePrice, hasPriority)
	if err != nil {
		return "", nil, err
	}

	if existing, ok := m.findCategory(category.Name()); ok {
		return "", nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, existing.Name())
	}

	m.categories = append(m.categories, category)

	return category.Name(), []Event{CategoryAdded{MapID: m.id, CategoryName: category.Name()}}, nil
}

func (m *SeatMap) AddSeat(row, number int, categoryName string) (uuid.UUID, []Event, error) {
	category, ok := m.findCategory(categoryName)
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, categoryName)
	}

	pos := seatPosition{row: row, number: number}
	if _, taken := m.byPosition[pos]; taken {
		return uuid.Nil, nil, fmt.Errorf("%w: row %d, number %d", ErrDuplicateSeat, row, number)
	}

	seat, err := newSeat(uuid.New(), m.id, m.eventID, row, number, category)
	if err != nil {
		return uuid.Nil, nil, err
	}

	m.appendSeat(seat)

	return seat.id, []Event{SeatAdded{
		MapID:    m.id,
		SeatID:   seat.id,
		Row:      row,
		Number:   number,
		Category: category.Name(),
	}}, nil
}

func (m *SeatMap) appendSeat(seat *Seat) {
	m.seats = append(m.seats, seat)
	m.byID[seat.id] = seat
	m.byPosition[seat.position()] = seat
}

func (m *SeatMap) ReserveSeat(seatID uuid.UUID, userID string, at time.Time) ([]Event, error) {
	seat, err := m.findSeat(seatID)
	if err != nil {
		return nil, err
	}

	if err := seat.Reserve(userID, at); err != nil {
		return nil, err
	}

	return []Event{SeatReserved{
		MapID:  m.id,
		SeatID: seat.id,
		Row:    seat.row,
		Number: seat.number,
		UserID: userID,
	}}, nil
}

// ReleaseSeat frees a seat. Releasing a seat that is already free succeeds
// and raises no event.
func (m *SeatMap) ReleaseSeat(seatID uuid.UUID) ([]Event, error) {
	seat, err := m.findSeat(seatID)
	if err != nil {
		return nil, err
	}

	if !seat.Release() {
		return nil, nil
	}

	return []Event{m.released(seat)}, nil
}

// ReleaseExpiredHold releases the hold named by an expiration notice. It is a
// no-op when the seat is already free, has been paid for, or is now held by a
// different user than the one whose hold expired.
func (m *SeatMap) ReleaseExpiredHold(seatID uuid.UUID, userID string) ([]Event, error) {
	seat, err := m.findSeat(seatID)
	if err != nil {
		return nil, err
	}

	if !seat.reserved || seat.paid {
		return nil, nil
	}

	if userID != "" && seat.heldBy != userID {
		return nil, nil
	}

	seat.Release()

	return []Event{m.released(seat)}, nil
}

func (m *SeatMap) released(seat *Seat) SeatReleased {
	return SeatReleased{
		MapID:  m.id,
		SeatID: seat.id,
		Row:    seat.row,
		Number: seat.number,
	}
}

func (m *SeatMap) MarkSeatPaid(seatID uuid.UUID) ([]Event, error) {
	seat, err := m.findSeat(seatID)
	if err != nil {
		return nil, err
	}

	if err := seat.MarkPaid(); err != nil {
		return nil, err
	}

	return []Event{SeatPaid{
		MapID:  m.id,
		SeatID: seat.id,
		Row:    seat.row,
		Number: seat.number,
	}}, nil
}

// IsNew reports whether the map itself has never been saved.
func (m *SeatMap) IsNew() bool {
	return !m.stored
}

// PendingCategories returns categories added since the map was loaded or saved.
func (m *SeatMap) PendingCategories() []SeatCategory {
	pending := make([]SeatCategory, len(m.categories)-m.persistedCategories)
	copy(pending, m.categories[m.persistedCategories:])

	return pending
}

// PendingSeats returns seats added since the map was loaded or saved.
func (m *SeatMap) PendingSeats() []Seat {
	return copySeats(m.seats[m.persistedSeats:])
}

// ModifiedSeats returns already persisted seats whose state changed since the
// map was loaded or saved. Their Version is the one storage must still hold.
func (m *SeatMap) ModifiedSeats() []Seat {
	var modified []*Seat

	for _, seat := range m.seats[:m.persistedSeats] {
		if seat.modifiedSincePersist() {
			modified = append(modified, seat)
		}
	}

	return copySeats(modified)
}

// MarkPersisted is called by a repository once the change-set has been stored.
func (m *SeatMap) MarkPersisted() {
	for _, seat := range m.seats {
		if !seat.persisted() || seat.dirty {
			seat.markPersisted()
		}
	}

	m.stored = true
	m.persistedCategories = len(m.categories)
	m.persistedSeats = len(m.seats)
}

func copySeats(seats []*Seat) []Seat {
	copied := make([]Seat, len(seats))
	for i, seat := range seats {
		copied[i] = *seat
	}

	return copied
}
