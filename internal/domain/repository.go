package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SeatMapRepository loads and saves SeatMap aggregates.
//
// Save stores only the change-set of the map and is all-or-nothing. When
// another writer changed one of the modified seats, or took a position or a
// category name the map is adding, Save fails with ErrEditConflict and the
// caller must reload before retrying.
type SeatMapRepository interface {
	GetByID(ctx context.Context, mapID uuid.UUID) (*SeatMap, error)
	GetSeatByID(ctx context.Context, seatID uuid.UUID) (*Seat, error)
	Save(ctx context.Context, m *SeatMap) error
}

// StaleHold is a reserved, unpaid seat whose hold started at HeldAt.
type StaleHold struct {
	MapID   uuid.UUID
	SeatID  uuid.UUID
	EventID string
	UserID  string
	HeldAt  time.Time
}

type StaleHoldFinder interface {
	FindStaleHolds(ctx context.Context, heldBefore time.Time, limit int) ([]StaleHold, error)
}
