// Package sweeper releases seat holds that outlived the reservation window.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const (
	defaultHoldTTL   = 15 * time.Minute
	defaultInterval  = 30 * time.Second
	defaultBatchSize = 100
)

type ExpirationHandler interface {
	HandleReservationExpired(ctx context.Context, ev domain.ReservationExpired) error
}

// Sweeper periodically looks for stale holds and turns each into a
// ReservationExpired notice for the same handler the message consumer uses.
type Sweeper struct {
	finder    domain.StaleHoldFinder
	handler   ExpirationHandler
	clock     clock.Clock
	logger    *slog.Logger
	holdTTL   time.Duration
	interval  time.Duration
	batchSize int
}

type Option func(*Sweeper)

func WithHoldTTL(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func New(finder domain.StaleHoldFinder, handler ExpirationHandler, clk clock.Clock, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		finder:    finder,
		handler:   handler,
		clock:     clk,
		logger:    logger.With("component", "sweeper"),
		holdTTL:   defaultHoldTTL,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting sweeper", "hold_ttl", s.holdTTL, "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopped sweeper")
			return nil
		case <-ticker.C:
			released, err := s.SweepOnce(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}

			if released > 0 {
				s.logger.Info("released expired holds", "count", released)
			}
		}
	}
}

// SweepOnce handles one batch of stale holds and reports how many notices
// were handled successfully. A hold that fails is logged and left for the
// next sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()

	holds, err := s.finder.FindStaleHolds(ctx, now.Add(-s.holdTTL), s.batchSize)
	if err != nil {
		return 0, err
	}

	var (
		handled int
		errs    []error
	)

	for _, hold := range holds {
		ev := domain.ReservationExpired{
			MapID:     hold.MapID,
			SeatID:    hold.SeatID,
			EventID:   hold.EventID,
			UserID:    hold.UserID,
			ExpiredAt: hold.HeldAt.Add(s.holdTTL),
		}

		if err := s.handler.HandleReservationExpired(ctx, ev); err != nil {
			s.logger.Warn("failed to release expired hold", "error", err, "seat_id", hold.SeatID, "map_id", hold.MapID)
			errs = append(errs, err)
			continue
		}

		handled++
	}

	return handled, errors.Join(errs...)
}
