// Package api holds the request and response bodies of the HTTP API.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Storage     string `json:"storage"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type CreateSeatMapRequest struct {
	EventId string `json:"eventId" validate:"notblank,max=128"`
}

type CreateSeatMapResponse struct {
	MapId uuid.UUID `json:"mapId"`
}

type AddCategoryRequest struct {
	Name        string           `json:"name" validate:"notblank,max=64"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty" validate:"omitempty,min=0"`
	HasPriority bool             `json:"hasPriority"`
}

type AddCategoryResponse struct {
	Name string `json:"name"`
}

type AddSeatRequest struct {
	Row      *int   `json:"row" validate:"required,min=0"`
	Number   *int   `json:"number" validate:"required,min=0"`
	Category string `json:"category" validate:"notblank,max=64"`
}

type AddSeatResponse struct {
	SeatId uuid.UUID `json:"seatId"`
}

type ReserveSeatRequest struct {
	UserId string `json:"userId" validate:"notblank,max=128"`
}

type Category struct {
	Name        string           `json:"name"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty"`
	HasPriority bool             `json:"hasPriority"`
}

type SeatStatus string

const (
	Available SeatStatus = "available"
	Held      SeatStatus = "held"
	Paid      SeatStatus = "paid"
)

type Seat struct {
	Id       uuid.UUID  `json:"id"`
	Row      int        `json:"row"`
	Number   int        `json:"number"`
	Category string     `json:"category"`
	Status   SeatStatus `json:"status"`
	HeldBy   *string    `json:"heldBy,omitempty"`
}

type SeatMapResponse struct {
	MapId      uuid.UUID  `json:"mapId"`
	EventId    string     `json:"eventId"`
	Categories []Category `json:"categories"`
	Seats      []Seat     `json:"seats"`
}
