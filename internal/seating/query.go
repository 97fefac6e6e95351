package seating

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
)

type SeatMapView struct {
	MapID      uuid.UUID
	EventID    string
	Categories []CategoryView
	Seats      []SeatView
}

type CategoryView struct {
	Name        string
	BasePrice   decimal.NullDecimal
	HasPriority bool
}

type SeatView struct {
	ID       uuid.UUID
	Row      int
	Number   int
	Category string
	Status   domain.SeatStatus
	HeldBy   string
	HeldAt   time.Time
}

// QueryService renders seat maps for display. It never mutates a map.
type QueryService struct {
	repo domain.SeatMapRepository
}

func NewQueryService(repo domain.SeatMapRepository) *QueryService {
	return &QueryService{repo: repo}
}

// GetMap lists priority categories first, keeping registration order within
// each group, and seats by row then number.
func (q *QueryService) GetMap(ctx context.Context, mapID uuid.UUID) (*SeatMapView, error) {
	m, err := q.repo.GetByID(ctx, mapID)
	if err != nil {
		return nil, err
	}

	return render(m), nil
}

func render(m *domain.SeatMap) *SeatMapView {
	categories := m.Categories()
	views := make([]CategoryView, 0, len(categories))

	for _, c := range categories {
		views = append(views, CategoryView{
			Name:        c.Name(),
			BasePrice:   c.BasePrice(),
			HasPriority: c.HasPriority(),
		})
	}

	slices.SortStableFunc(views, func(a, b CategoryView) int {
		switch {
		case a.HasPriority == b.HasPriority:
			return 0
		case a.HasPriority:
			return -1
		default:
			return 1
		}
	})

	seats := m.Seats()
	seatViews := make([]SeatView, 0, len(seats))

	for i := range seats {
		seat := &seats[i]
		seatViews = append(seatViews, SeatView{
			ID:       seat.ID(),
			Row:      seat.Row(),
			Number:   seat.Number(),
			Category: seat.Category().Name(),
			Status:   seat.Status(),
			HeldBy:   seat.HeldBy(),
			HeldAt:   seat.HeldAt(),
		})
	}

	slices.SortFunc(seatViews, func(a, b SeatView) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Number, b.Number))
	})

	return &SeatMapView{
		MapID:      m.ID(),
		EventID:    m.EventID(),
		Categories: views,
		Seats:      seatViews,
	}
}
