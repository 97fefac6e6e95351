package seating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/metinatakli/seat-reservation/internal/seating"
	defaultMaxAttempts  = 3
)

// Service runs every seat map command as one load-mutate-save unit and
// retries the unit when the repository reports an edit conflict.
type Service struct {
	repo        domain.SeatMapRepository
	publisher   domain.EventPublisher
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int

	tracer    trace.Tracer
	conflicts metric.Int64Counter
}

type Option func(*Service)

func WithPublisher(p domain.EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxAttempts bounds how many times a command is tried before an edit
// conflict is returned to the caller.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(repo domain.SeatMapRepository, opts ...Option) *Service {
	svc := &Service{
		repo:        repo,
		publisher:   nopPublisher{},
		clock:       clock.NewSystem(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts: defaultMaxAttempts,
		tracer:      otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(svc)
	}

	conflicts, err := otel.Meter(instrumentationName).Int64Counter(
		"seating.edit_conflicts",
		metric.WithDescription("Number of seat map saves rejected because of a concurrent modification"),
	)
	if err != nil {
		svc.logger.Warn("failed to create edit conflict counter", "error", err)
	}
	svc.conflicts = conflicts

	return svc
}

func (s *Service) CreateMap(ctx context.Context, eventID string) (uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "seating.CreateMap")
	defer span.End()

	m, events, err := domain.NewSeatMap(eventID)
	if err != nil {
		return uuid.Nil, recordError(span, err)
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return uuid.Nil, recordError(span, err)
	}

	s.publish(ctx, events)

	return m.ID(), nil
}

type AddCategoryInput struct {
	Name        string
	BasePrice   decimal.NullDecimal
	HasPriority bool
}

func (s *Service) AddCategory(ctx context.Context, mapID uuid.UUID, in AddCategoryInput) (string, error) {
	var name string

	err := s.mutate(ctx, "seating.AddCategory", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		var (
			events []domain.Event
			err    error
		)

		name, events, err = m.AddCategory(in.Name, in.BasePrice, in.HasPriority)

		return events, err
	})

	return name, err
}

func (s *Service) AddSeat(ctx context.Context, mapID uuid.UUID, row, number int, category string) (uuid.UUID, error) {
	var seatID uuid.UUID

	err := s.mutate(ctx, "seating.AddSeat", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		var (
			events []domain.Event
			err    error
		)

		seatID, events, err = m.AddSeat(row, number, category)

		return events, err
	})

	return seatID, err
}

func (s *Service) ReserveSeat(ctx context.Context, mapID, seatID uuid.UUID, userID string) error {
	return s.mutate(ctx, "seating.ReserveSeat", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		return m.ReserveSeat(seatID, userID, s.clock.Now())
	})
}

func (s *Service) ReleaseSeat(ctx context.Context, mapID, seatID uuid.UUID) error {
	return s.mutate(ctx, "seating.ReleaseSeat", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		return m.ReleaseSeat(seatID)
	})
}

// ReleaseSeatByID releases a seat when only its id is known.
func (s *Service) ReleaseSeatByID(ctx context.Context, seatID uuid.UUID) error {
	seat, err := s.repo.GetSeatByID(ctx, seatID)
	if err != nil {
		return err
	}

	return s.ReleaseSeat(ctx, seat.MapID(), seatID)
}

func (s *Service) MarkSeatPaid(ctx context.Context, mapID, seatID uuid.UUID) error {
	return s.mutate(ctx, "seating.MarkSeatPaid", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		return m.MarkSeatPaid(seatID)
	})
}

// HandleReservationExpired releases the hold an expiration notice refers to.
// Replays and notices for holds that were already released, paid for or
// taken over by another user succeed without changing anything.
func (s *Service) HandleReservationExpired(ctx context.Context, ev domain.ReservationExpired) error {
	mapID := ev.MapID
	if mapID == uuid.Nil {
		seat, err := s.repo.GetSeatByID(ctx, ev.SeatID)
		if err != nil {
			return err
		}

		mapID = seat.MapID()
	}

	return s.mutate(ctx, "seating.HandleReservationExpired", mapID, func(m *domain.SeatMap) ([]domain.Event, error) {
		if ev.EventID != "" && ev.EventID != m.EventID() {
			return nil, fmt.Errorf("%w: map %s does not belong to event %q", domain.ErrInvalidArgument, m.ID(), ev.EventID)
		}

		return m.ReleaseExpiredHold(ev.SeatID, ev.UserID)
	})
}

func (s *Service) mutate(
	ctx context.Context,
	operation string,
	mapID uuid.UUID,
	fn func(m *domain.SeatMap) ([]domain.Event, error)) error {

	ctx, span := s.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("seat_map.id", mapID.String()),
	))
	defer span.End()

	var events []domain.Event

	for attempt := 1; ; attempt++ {
		m, err := s.repo.GetByID(ctx, mapID)
		if err != nil {
			return recordError(span, err)
		}

		events, err = fn(m)
		if err != nil {
			return recordError(span, err)
		}

		if len(events) == 0 {
			return nil
		}

		err = s.repo.Save(ctx, m)
		if err == nil {
			span.SetAttributes(attribute.Int("seating.attempts", attempt))
			break
		}

		if !errors.Is(err, domain.ErrEditConflict) {
			return recordError(span, err)
		}

		if s.conflicts != nil {
			s.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
		}

		if attempt >= s.maxAttempts {
			return recordError(span, err)
		}

		if err := ctx.Err(); err != nil {
			return recordError(span, err)
		}

		s.logger.Debug("retrying after edit conflict", "operation", operation, "map_id", mapID, "attempt", attempt)
	}

	s.publish(ctx, events)

	return nil
}

// publish hands committed events to the publisher. A failure here never
// undoes or fails the command.
func (s *Service) publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish seat map events", "error", err, "count", len(events))
	}
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...domain.Event) error {
	return nil
}
