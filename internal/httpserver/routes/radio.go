package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/httpserver/handlers"
)

func init() { Register(registerRadio) }

func registerRadio(r chi.Router, d deps.Deps) {
	r.With(apiMW(d)...).Get("/api/radio/{trackId}", handlers.Radio(d))
}
