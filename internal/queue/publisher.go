package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends domain events to a topic exchange, routed by event type.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	clock    clock.Clock
}

func NewPublisher(url, exchange string, clk clock.Clock) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}

	err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	return &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		clock:    clk,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range events {
		envelope, err := domain.NewEnvelope(e, now)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.EventType(), err)
		}

		body, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.EventType(), err)
		}

		msg := amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Type:         e.EventType(),
			Timestamp:    now,
			Body:         body,
		}

		if err := p.ch.PublishWithContext(ctx, p.exchange, e.EventType(), false, false, msg); err != nil {
			return fmt.Errorf("publish %s: %w", e.EventType(), err)
		}
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if connErr := p.conn.Close(); err == nil {
			err = connErr
		}
	}

	return err
}
