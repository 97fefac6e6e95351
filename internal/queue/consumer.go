package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type ExpirationHandler interface {
	HandleReservationExpired(ctx context.Context, ev domain.ReservationExpired) error
}

type ConsumerConfig struct {
	URL        string
	Queue      string
	Prefetch   int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Consumer feeds ReservationExpired notices from RabbitMQ into an
// ExpirationHandler and keeps reconnecting until its context is cancelled.
type Consumer struct {
	cfg     ConsumerConfig
	handler ExpirationHandler
	logger  *slog.Logger
}

func NewConsumer(cfg ConsumerConfig, handler ExpirationHandler, logger *slog.Logger) *Consumer {
	if cfg.Queue == "" {
		cfg.Queue = DefaultExpirationQueue
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 50
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}

	return &Consumer{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "expiration-consumer", "queue", cfg.Queue),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.cfg.MinBackoff

	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.logger.Warn("failed to dial broker", "error", err, "retry_in", backoff)

			if !sleep(ctx, backoff) {
				return ctx.Err()
			}

			backoff = min(backoff*2, c.cfg.MaxBackoff)
			continue
		}

		backoff = c.cfg.MinBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("consume loop ended, reconnecting", "error", err)

		if !sleep(ctx, c.cfg.MinBackoff) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	_, err = ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.logger.Info("consuming reservation expiry notices")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			c.handle(ctx, d)
		}
	}
}

type disposition int

const (
	ack disposition = iota
	reject
	requeue
)

// handle settles one delivery. Malformed notices are dropped, notices for
// unknown maps or seats are acknowledged, and anything else is requeued.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var err error

	switch c.process(ctx, d.Body) {
	case ack:
		err = d.Ack(false)
	case reject:
		err = d.Nack(false, false)
	case requeue:
		err = d.Nack(false, true)
	}

	if err != nil {
		c.logger.Error("failed to settle delivery", "error", err, "delivery_tag", d.DeliveryTag)
	}
}

func (c *Consumer) process(ctx context.Context, body []byte) disposition {
	ev, err := decodeReservationExpired(body)
	if err != nil {
		c.logger.Error("dropping malformed reservation expiry notice", "error", err)
		return reject
	}

	err = c.handler.HandleReservationExpired(ctx, ev)

	switch {
	case err == nil:
		return ack
	case errors.Is(err, domain.ErrMapNotFound), errors.Is(err, domain.ErrSeatNotFound):
		c.logger.Warn("reservation expiry notice for unknown seat", "seat_id", ev.SeatID, "map_id", ev.MapID)
		return ack
	case errors.Is(err, domain.ErrInvalidArgument):
		c.logger.Error("dropping invalid reservation expiry notice", "error", err, "seat_id", ev.SeatID)
		return reject
	default:
		c.logger.Error("failed to handle reservation expiry notice", "error", err, "seat_id", ev.SeatID)
		return requeue
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
