package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/httpserver/handlers"
)

func init() { Register(registerLibrary) }

func registerLibrary(r chi.Router, d deps.Deps) {
	api := r.With(apiMW(d)...)
	api.Get("/api/tracks", handlers.Tracks(d))
	api.Get("/api/albums", handlers.Albums(d))
	api.Get("/api/playlists", handlers.Playlists(d))
	api.Get("/api/artists", handlers.Artists(d))
	api.Get("/api/recommendations", handlers.Recommendations(d))
	api.Get("/api/profiles", handlers.Profiles(d))
}
