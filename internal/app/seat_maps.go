package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/seating"
	"github.com/shopspring/decimal"
)

func (app *Application) CreateSeatMap(w http.ResponseWriter, r *http.Request) {
	var input api.CreateSeatMapRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	mapID, err := app.seating.CreateMap(r.Context(), input.EventId)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("seat map created", "map_id", mapID, "event_id", input.EventId)

	headers := make(http.Header)
	headers.Set("Location", "/v1/seat-maps/"+mapID.String())

	err = app.writeJSON(w, http.StatusCreated, api.CreateSeatMapResponse{MapId: mapID}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := app.queries.GetMap(r.Context(), mapID)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatMapResponse(view), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) AddCategory(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.AddCategoryRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var basePrice decimal.NullDecimal
	if input.BasePrice != nil {
		basePrice = decimal.NewNullDecimal(*input.BasePrice)
	}

	name, err := app.seating.AddCategory(r.Context(), mapID, seating.AddCategoryInput{
		Name:        input.Name,
		BasePrice:   basePrice,
		HasPriority: input.HasPriority,
	})
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, api.AddCategoryResponse{Name: name}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) AddSeat(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.AddSeatRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seatID, err := app.seating.AddSeat(r.Context(), mapID, *input.Row, *input.Number, input.Category)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, api.AddSeatResponse{SeatId: seatID}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReserveSeat(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatID, err := uuidParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.ReserveSeatRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.seating.ReserveSeat(r.Context(), mapID, seatID, input.UserId)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) ReleaseSeat(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatID, err := uuidParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.seating.ReleaseSeat(r.Context(), mapID, seatID)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReleaseSeatByID releases a seat when the caller only knows the seat id.
func (app *Application) ReleaseSeatByID(w http.ResponseWriter, r *http.Request) {
	seatID, err := uuidParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.seating.ReleaseSeatByID(r.Context(), seatID)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) MarkSeatPaid(w http.ResponseWriter, r *http.Request) {
	mapID, err := uuidParam(r, "mapId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatID, err := uuidParam(r, "seatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.seating.MarkSeatPaid(r.Context(), mapID, seatID)
	if err != nil {
		app.seatingErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("seat paid", "map_id", mapID, "seat_id", seatID)

	w.WriteHeader(http.StatusNoContent)
}

func toSeatMapResponse(view *seating.SeatMapView) api.SeatMapResponse {
	resp := api.SeatMapResponse{
		MapId:      view.MapID,
		EventId:    view.EventID,
		Categories: make([]api.Category, 0, len(view.Categories)),
		Seats:      make([]api.Seat, 0, len(view.Seats)),
	}

	for _, c := range view.Categories {
		category := api.Category{
			Name:        c.Name,
			HasPriority: c.HasPriority,
		}
		if c.BasePrice.Valid {
			category.BasePrice = &c.BasePrice.Decimal
		}
		resp.Categories = append(resp.Categories, category)
	}

	for _, s := range view.Seats {
		seat := api.Seat{
			Id:       s.ID,
			Row:      s.Row,
			Number:   s.Number,
			Category: s.Category,
			Status:   toSeatStatus(s.Status),
		}
		if s.HeldBy != "" {
			seat.HeldBy = &s.HeldBy
		}
		resp.Seats = append(resp.Seats, seat)
	}

	return resp
}

func toSeatStatus(status domain.SeatStatus) api.SeatStatus {
	switch status {
	case domain.SeatStatusHeld:
		return api.Held
	case domain.SeatStatusPaid:
		return api.Paid
	default:
		return api.Available
	}
}
