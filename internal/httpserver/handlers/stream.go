package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
)

// Stream hands the request to the audio relay: resolution, caching,
// range handling and the chunked pump all live there.
func Stream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Stream.ServeTrack(w, r, chi.URLParam(r, "trackId"))
	}
}
