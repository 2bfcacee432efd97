package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/geleverd/geleverd-web/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware веб-сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(h.limiter.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/quote", h.Quote)
		r.Get("/track/{trackingNumber}", h.Track)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Middleware)

			r.Get("/dashboard", h.Dashboard)
			r.Get("/orders", h.Orders)
			r.Get("/me", h.Me)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
