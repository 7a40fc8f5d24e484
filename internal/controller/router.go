package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", c.createSession)
			r.Route("/{session-id}", func(r chi.Router) {
				r.Get("/", c.getSession)
				r.Post("/join", c.joinSession)
				r.Get("/users/primary", c.getPrimaryUsers)
				r.Get("/users/secondary", c.getSecondaryUsers)
			})
		})
		r.Route("/ws", func(r chi.Router) {
			r.Get("/sessions/{session-id}", c.connectSession)
		})
	})

	return r
}
