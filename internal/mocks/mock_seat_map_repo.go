package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatMapRepo struct {
	mock.Mock
}

func (m *MockSeatMapRepo) GetByID(ctx context.Context, mapID uuid.UUID) (*domain.SeatMap, error) {
	args := m.Called(ctx, mapID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

func (m *MockSeatMapRepo) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*domain.Seat, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatMapRepo) Save(ctx context.Context, seatMap *domain.SeatMap) error {
	args := m.Called(ctx, seatMap)
	return args.Error(0)
}

type MockStaleHoldFinder struct {
	FindStaleHoldsFunc func(ctx context.Context, heldBefore time.Time, limit int) ([]domain.StaleHold, error)
}

func (m *MockStaleHoldFinder) FindStaleHolds(ctx context.Context, heldBefore time.Time, limit int) ([]domain.StaleHold, error) {
	return m.FindStaleHoldsFunc(ctx, heldBefore, limit)
}
