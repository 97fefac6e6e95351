package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}

	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})

	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisherRoutesByEventType(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: DefaultEventsExchange, clock: clock.NewManual(now)}

	mapID, seatID := uuid.New(), uuid.New()
	events := []domain.Event{
		domain.SeatReserved{MapID: mapID, SeatID: seatID, Row: 1, Number: 2, UserID: "U1"},
		domain.SeatReleased{MapID: mapID, SeatID: seatID, Row: 1, Number: 2},
	}

	require.NoError(t, p.Publish(context.Background(), events...))
	require.Len(t, ch.published, 2)

	first := ch.published[0]
	assert.Equal(t, DefaultEventsExchange, first.exchange)
	assert.Equal(t, domain.EventSeatReserved, first.key)
	assert.Equal(t, amqp.Persistent, first.msg.DeliveryMode)
	assert.Equal(t, "application/json", first.msg.ContentType)
	assert.NotEmpty(t, first.msg.MessageId)

	var envelope domain.Envelope
	require.NoError(t, json.Unmarshal(first.msg.Body, &envelope))
	assert.Equal(t, domain.EventSeatReserved, envelope.Type)
	assert.Equal(t, mapID, envelope.MapID)
	assert.True(t, now.Equal(envelope.OccurredAt))

	var payload domain.SeatReserved
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, events[0], payload)

	assert.Equal(t, domain.EventSeatReleased, ch.published[1].key)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisherReturnsChannelErrors(t *testing.T) {
	brokerErr := errors.New("channel closed")
	p := &Publisher{ch: &fakeChannel{err: brokerErr}, exchange: DefaultEventsExchange, clock: clock.NewSystem()}

	err := p.Publish(context.Background(), domain.MapCreated{MapID: uuid.New(), EventID: "E"})
	assert.ErrorIs(t, err, brokerErr)
}
