package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

// MemorySeatMapRepository keeps seat maps in process memory. It follows the
// same optimistic concurrency rules as the Postgres repository.
type MemorySeatMapRepository struct {
	mu        sync.RWMutex
	maps      map[uuid.UUID]*domain.SeatMapSnapshot
	seatIndex map[uuid.UUID]uuid.UUID
}

func NewMemorySeatMapRepository() *MemorySeatMapRepository {
	return &MemorySeatMapRepository{
		maps:      make(map[uuid.UUID]*domain.SeatMapSnapshot),
		seatIndex: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *MemorySeatMapRepository) GetByID(ctx context.Context, mapID uuid.UUID) (*domain.SeatMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.maps[mapID]
	if !ok {
		return nil, domain.ErrMapNotFound
	}

	return domain.RestoreSeatMap(*stored)
}

func (r *MemorySeatMapRepository) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*domain.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	mapID, ok := r.seatIndex[seatID]
	if !ok {
		return nil, domain.ErrSeatNotFound
	}

	stored := r.maps[mapID]

	i := slices.IndexFunc(stored.Seats, func(s domain.SeatSnapshot) bool { return s.ID == seatID })
	seat := stored.Seats[i]

	j := slices.IndexFunc(stored.Categories, func(c domain.CategorySnapshot) bool {
		return domain.CategoryKey(c.Name) == domain.CategoryKey(seat.Category)
	})
	if j < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrCategoryNotFound, seat.Category)
	}

	return domain.RestoreSeat(stored.ID, stored.EventID, stored.Categories[j], seat)
}

// Save applies the change-set of m. Nothing is written when any part of it
// conflicts with what is stored.
func (r *MemorySeatMapRepository) Save(ctx context.Context, m *domain.SeatMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m.IsNew() {
		if _, exists := r.maps[m.ID()]; exists {
			return fmt.Errorf("%w: seat map %s already exists", domain.ErrEditConflict, m.ID())
		}

		snapshot := m.Snapshot()
		for i := range snapshot.Seats {
			snapshot.Seats[i].Version = 1
			r.seatIndex[snapshot.Seats[i].ID] = m.ID()
		}

		r.maps[m.ID()] = &snapshot
		m.MarkPersisted()

		return nil
	}

	stored, ok := r.maps[m.ID()]
	if !ok {
		return domain.ErrMapNotFound
	}

	if err := checkChangeSet(stored, m); err != nil {
		return err
	}

	for _, c := range m.PendingCategories() {
		stored.Categories = append(stored.Categories, domain.CategorySnapshot{
			Name:        c.Name(),
			BasePrice:   c.BasePrice(),
			HasPriority: c.HasPriority(),
		})
	}

	modified := m.ModifiedSeats()
	for i := range modified {
		next := modified[i].Snapshot()
		next.Version++

		k := slices.IndexFunc(stored.Seats, func(s domain.SeatSnapshot) bool { return s.ID == next.ID })
		stored.Seats[k] = next
	}

	pending := m.PendingSeats()
	for i := range pending {
		next := pending[i].Snapshot()
		next.Version = 1

		stored.Seats = append(stored.Seats, next)
		r.seatIndex[next.ID] = m.ID()
	}

	m.MarkPersisted()

	return nil
}

func checkChangeSet(stored *domain.SeatMapSnapshot, m *domain.SeatMap) error {
	for _, c := range m.PendingCategories() {
		taken := slices.ContainsFunc(stored.Categories, func(existing domain.CategorySnapshot) bool {
			return domain.CategoryKey(existing.Name) == c.Key()
		})
		if taken {
			return fmt.Errorf("%w: category %q was added concurrently", domain.ErrEditConflict, c.Name())
		}
	}

	pending := m.PendingSeats()
	for i := range pending {
		seat := &pending[i]

		taken := slices.ContainsFunc(stored.Seats, func(existing domain.SeatSnapshot) bool {
			return existing.Row == seat.Row() && existing.Number == seat.Number()
		})
		if taken {
			return fmt.Errorf("%w: row %d, number %d was taken concurrently", domain.ErrEditConflict, seat.Row(), seat.Number())
		}
	}

	modified := m.ModifiedSeats()
	for i := range modified {
		seat := &modified[i]

		k := slices.IndexFunc(stored.Seats, func(s domain.SeatSnapshot) bool { return s.ID == seat.ID() })
		if k < 0 || stored.Seats[k].Version != seat.Version() {
			return fmt.Errorf("%w: seat %s was modified concurrently", domain.ErrEditConflict, seat.ID())
		}
	}

	return nil
}

// FindStaleHolds returns reserved, unpaid seats held since before heldBefore,
// oldest first.
func (r *MemorySeatMapRepository) FindStaleHolds(ctx context.Context, heldBefore time.Time, limit int) ([]domain.StaleHold, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var holds []domain.StaleHold

	for _, stored := range r.maps {
		for _, seat := range stored.Seats {
			if !seat.Reserved || seat.Paid || !seat.HeldAt.Before(heldBefore) {
				continue
			}

			holds = append(holds, domain.StaleHold{
				MapID:   stored.ID,
				SeatID:  seat.ID,
				EventID: stored.EventID,
				UserID:  seat.HeldBy,
				HeldAt:  seat.HeldAt,
			})
		}
	}

	slices.SortFunc(holds, func(a, b domain.StaleHold) int {
		return cmp.Or(a.HeldAt.Compare(b.HeldAt), cmp.Compare(a.SeatID.String(), b.SeatID.String()))
	})

	if limit > 0 && len(holds) > limit {
		holds = holds[:limit]
	}

	return holds, nil
}
