package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	api := r.With(apiMW(d)...)
	api.Post("/api/services/connect", handlers.Connect(d))
	api.Post("/api/services/disconnect", handlers.Disconnect(d))
}
