// Package queue connects the seat map service to RabbitMQ: domain events go
// out on a topic exchange and reservation expiry notices come in on a
// durable queue.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const (
	DefaultEventsExchange  = "seat-map.events"
	DefaultExpirationQueue = "seat.reservation.expired"
	contentTypeJSON        = "application/json"
)

var errMalformedMessage = errors.New("malformed message")

func decodeReservationExpired(body []byte) (domain.ReservationExpired, error) {
	var msg domain.ReservationExpired

	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.ReservationExpired{}, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	if msg.SeatID == uuid.Nil {
		return domain.ReservationExpired{}, fmt.Errorf("%w: seatId is required", errMalformedMessage)
	}

	return msg, nil
}
