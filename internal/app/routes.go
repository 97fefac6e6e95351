package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.GetHealth)

		r.Post("/seat-maps", app.CreateSeatMap)

		r.Route("/seat-maps/{mapId}", func(r chi.Router) {
			r.Get("/", app.GetSeatMap)
			r.Post("/categories", app.AddCategory)
			r.Post("/seats", app.AddSeat)

			r.Route("/seats/{seatId}", func(r chi.Router) {
				r.Post("/reservation", app.ReserveSeat)
				r.Delete("/reservation", app.ReleaseSeat)
				r.Post("/payment", app.MarkSeatPaid)
			})
		})

		r.Delete("/seats/{seatId}/reservation", app.ReleaseSeatByID)
	})

	return r
}
