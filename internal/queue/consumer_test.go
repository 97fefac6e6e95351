package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, ev domain.ReservationExpired) error

func (f handlerFunc) HandleReservationExpired(ctx context.Context, ev domain.ReservationExpired) error {
	return f(ctx, ev)
}

type settlement struct {
	acked    bool
	nacked   bool
	requeued bool
}

type fakeAcknowledger struct {
	settled []settlement
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.settled = append(a.settled, settlement{acked: true})
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.settled = append(a.settled, settlement{nacked: true, requeued: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

func TestConsumerSettlesDeliveries(t *testing.T) {
	seatID := uuid.New()
	valid := `{"mapId":"` + uuid.NewString() + `","seatId":"` + seatID.String() + `","eventId":"E","userId":"U1","expiredAt":"2025-06-01T18:15:00Z"}`

	tests := []struct {
		name       string
		body       string
		handlerErr error
		want       settlement
		wantCalled bool
	}{
		{
			name:       "should ack a handled notice",
			body:       valid,
			want:       settlement{acked: true},
			wantCalled: true,
		},
		{
			name: "should drop invalid json",
			body: `{"seatId":`,
			want: settlement{nacked: true},
		},
		{
			name: "should drop a notice without seat id",
			body: `{"mapId":"` + uuid.NewString() + `"}`,
			want: settlement{nacked: true},
		},
		{
			name:       "should ack a notice for an unknown seat",
			body:       valid,
			handlerErr: domain.ErrSeatNotFound,
			want:       settlement{acked: true},
			wantCalled: true,
		},
		{
			name:       "should ack a notice for an unknown map",
			body:       valid,
			handlerErr: domain.ErrMapNotFound,
			want:       settlement{acked: true},
			wantCalled: true,
		},
		{
			name:       "should drop a notice the handler rejects as invalid",
			body:       valid,
			handlerErr: domain.ErrInvalidArgument,
			want:       settlement{nacked: true},
			wantCalled: true,
		},
		{
			name:       "should requeue on a transient failure",
			body:       valid,
			handlerErr: domain.ErrEditConflict,
			want:       settlement{nacked: true, requeued: true},
			wantCalled: true,
		},
		{
			name:       "should requeue on an unknown failure",
			body:       valid,
			handlerErr: errors.New("connection reset"),
			want:       settlement{nacked: true, requeued: true},
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool

			handler := handlerFunc(func(_ context.Context, ev domain.ReservationExpired) error {
				called = true
				assert.Equal(t, seatID, ev.SeatID)
				assert.Equal(t, "U1", ev.UserID)
				return tt.handlerErr
			})

			c := NewConsumer(ConsumerConfig{URL: "amqp://unused"}, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
			ack := &fakeAcknowledger{}

			c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(tt.body)})

			require.Len(t, ack.settled, 1)
			assert.Equal(t, tt.want, ack.settled[0])
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestNewConsumerDefaults(t *testing.T) {
	c := NewConsumer(ConsumerConfig{URL: "amqp://unused"}, handlerFunc(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, DefaultExpirationQueue, c.cfg.Queue)
	assert.Equal(t, 50, c.cfg.Prefetch)
	assert.Positive(t, c.cfg.MinBackoff)
	assert.GreaterOrEqual(t, c.cfg.MaxBackoff, c.cfg.MinBackoff)
}
