package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c *controller) GetMux() *chi.Mux {
	mux := chi.NewMux()

	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(c.requestIdMw)
	mux.Use(c.requestLoggingMw)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", c.handleWS)
		r.Get("/rooms/{roomId}", c.handleGetRoomPreview)
	})

	return mux
}
