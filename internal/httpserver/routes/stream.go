package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/httpserver/handlers"
	"github.com/medley-audio/medley/internal/httpserver/mw"
)

func init() { Register(registerStream) }

// No request timeout here: an audio response lives as long as the
// listener does, and the relay extends write deadlines per chunk.
func registerStream(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireAccessKey(d.AccessKey, d.Logger),
	).Get("/api/stream/{trackId}", handlers.Stream(d))
}
